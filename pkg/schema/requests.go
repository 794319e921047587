package schema

// ClientEnvironment mirrors the CLIENT_ENVIRONMENT block every login
// request carries, identifying the driver to the server.
type ClientEnvironment struct {
	Application string `json:"APPLICATION"`
	OS          string `json:"OS"`
	OSVersion   string `json:"OS_VERSION"`
	OCSPMode    string `json:"OCSP_MODE"`
}

// SessionParameters is the fixed set of session parameters sent on login.
type SessionParameters struct {
	ClientValidateDefaultParameters bool `json:"CLIENT_VALIDATE_DEFAULT_PARAMETERS"`
}

// LoginRequestData is the "data" object of a login-request body. Exactly
// one of Password or Token/Authenticator is populated depending on the
// credential variant.
type LoginRequestData struct {
	ClientAppID       string            `json:"CLIENT_APP_ID"`
	ClientAppVersion  string            `json:"CLIENT_APP_VERSION"`
	SvnRevision       string            `json:"SVN_REVISION"`
	AccountName       string            `json:"ACCOUNT_NAME"`
	LoginName         string            `json:"LOGIN_NAME"`
	Authenticator     string            `json:"AUTHENTICATOR,omitempty"`
	Token             string            `json:"TOKEN,omitempty"`
	Password          string            `json:"PASSWORD,omitempty"`
	SessionParameters SessionParameters `json:"SESSION_PARAMETERS"`
	ClientEnvironment ClientEnvironment `json:"CLIENT_ENVIRONMENT"`
}

// LoginRequestBody is the full login-request envelope.
type LoginRequestBody struct {
	Data LoginRequestData `json:"data"`
}

// TokenRequestBody is the body posted to session/token-request to renew a
// session using the master token.
type TokenRequestBody struct {
	OldSessionToken string `json:"oldSessionToken"`
	RequestType     string `json:"requestType"`
}

// QueryRequestBody is the body posted to queries/v1/query-request.
type QueryRequestBody struct {
	SQLText    string         `json:"sqlText"`
	AsyncExec  bool           `json:"asyncExec"`
	SequenceID uint64         `json:"sequenceId"`
	IsInternal bool           `json:"isInternal"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Bindings   map[string]any `json:"bindings,omitempty"`
}
