package constants

const (
	Create        = "CREATE"
	Update        = "UPDATE"
	Delete        = "DELETE"
	Borrow        = "BORROW"
	Return        = "RETURN"
	Remind        = "REMIND"
	Register      = "REGISTER"
	ResetPassword = "RESET_PASSWORD"
)
