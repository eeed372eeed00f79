package email

// Kind nombra cada tipo de email que el servicio sabe construir.
type Kind string

const (
	KindActivation                  Kind = "activation"
	KindConfirmation                Kind = "confirmation"
	KindPasswordReset               Kind = "password_reset"
	KindPasswordChangedConfirmation Kind = "password_changed_confirmation"
	KindUsernameReset               Kind = "username_reset"
	KindUsernameChangedConfirmation Kind = "username_changed_confirmation"
	KindPasswordlessRequest         Kind = "passwordless_request"
)

// Message es el email ya construido, listo para el transporte.
type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string // opcional
}

// Sender es el transporte saliente. Las fallas no se reintentan dentro del
// request; los flujos "silenciosos" las ignoran y los demás las loguean.
type Sender interface {
	Send(m Message) error
}

// linkContext son las variables disponibles para los templates.
type linkContext struct {
	Login      string
	Email      string
	UID        string
	Token      string
	ShortToken string
	URL        string
	Domain     string
	SiteName   string
	Protocol   string
}
