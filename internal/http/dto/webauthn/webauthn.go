// Package webauthn define los cuerpos de request/response de /webauthn/.
package webauthn

// SignupRequestBody es el body de POST /webauthn/signup_request/.
type SignupRequestBody struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// CredentialCreationOptions es la respuesta de signup_request: las opciones
// que el cliente pasa a navigator.credentials.create.
type CredentialCreationOptions struct {
	Challenge string         `json:"challenge"`
	RP        RelyingParty   `json:"rp"`
	User      PublicKeyUser  `json:"user"`
	PubKeyCP  []PubKeyParam  `json:"pubKeyCredParams"`
	Timeout   int            `json:"timeout"`
	Extra     map[string]any `json:"extensions,omitempty"`
}

type RelyingParty struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type PublicKeyUser struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type PubKeyParam struct {
	Type string `json:"type"`
	Alg  int    `json:"alg"`
}

// SignupBody es el body de POST /webauthn/signup/{ukey}/: la respuesta del
// autenticador más los campos de cuenta.
type SignupBody struct {
	Username     string `json:"username"`
	Email        string `json:"email,omitempty"`
	CredentialID string `json:"credential_id"`
	PublicKey    string `json:"public_key"`
	SignCount    int    `json:"sign_count"`
	ClientData   string `json:"client_data,omitempty"`
}

// LoginRequestBody es el body de POST /webauthn/login_request/.
type LoginRequestBody struct {
	Username string `json:"username"`
}

// AssertionOptions es la respuesta de login_request.
type AssertionOptions struct {
	Challenge        string   `json:"challenge"`
	AllowCredentials []string `json:"allowCredentials"`
	RPID             string   `json:"rpId"`
	Timeout          int      `json:"timeout"`
}

// LoginBody es el body de POST /webauthn/login/.
type LoginBody struct {
	Username     string `json:"username"`
	CredentialID string `json:"credential_id"`
	Signature    string `json:"signature,omitempty"`
	SignCount    int    `json:"sign_count"`
	ClientData   string `json:"client_data,omitempty"`
}
