package constants

// Overlay copy shown to the device user
const (
	ServiceRunningTitle   = "Operator"
	ServiceRunningContent = "Operator service is running"

	OperationFailedTitle   = "Operation Failed"
	OperationFailedGeneric = "An unknown error occurred."

	ConfirmationTitle = "User Confirmation"
	ConfirmAction     = "Confirm"
	RefuseAction      = "Refuse"
	// Formatted with the prompt
	UserConfirmedFormat = "You confirmed: %s"
	UserRefusedFormat   = "You refused: %s"

	ChoiceTitle = "User Choice"
	// Formatted with the chosen option text
	UserChoseFormat     = "You chose: %s"
	UserCancelledChoice = "You cancelled the choice."

	DefaultMessageTitle = "Message From Operator"
)

// Command result copy
const (
	ServiceNotRunning = "Accessibility service is not running."
	Cancelled         = "cancelled"
)
