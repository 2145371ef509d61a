package utils

import (
	log "github.com/sirupsen/logrus"
)

// AppendToEmailLog stands in for an outbound mail provider: reminder emails
// are logged, not sent.
func AppendToEmailLog(userID, loanID string) {
	log.WithFields(log.Fields{
		"userId": userID,
		"loanId": loanID,
	}).Info("[EMAIL LOG] overdue reminder queued")
}
