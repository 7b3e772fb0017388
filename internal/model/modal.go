package model

type ModalType string

const (
	ModalSuccess ModalType = "success"
	ModalError   ModalType = "error"
)

// Modal is the blocking status box every mutating action ends in.
type Modal struct {
	Type    ModalType `json:"type"`
	Message string    `json:"message"`
}

func SuccessModal(message string) *Modal {
	return &Modal{Type: ModalSuccess, Message: message}
}

func ErrorModal(message string) *Modal {
	return &Modal{Type: ModalError, Message: message}
}
