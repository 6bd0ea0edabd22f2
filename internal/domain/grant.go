package domain

// GrantType names a flow a client may use to obtain tokens.
type GrantType string

const (
	GrantTypePassword GrantType = "password"
	GrantTypeRefresh  GrantType = "refresh_token"
)
