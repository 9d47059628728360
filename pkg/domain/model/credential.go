package model

// ServiceAccountKey is the subset of a Google service account JSON key
// needed to validate and describe it. PrivateKey is never logged.
type ServiceAccountKey struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id" masq:"secret"`
	PrivateKey   string `json:"private_key" masq:"secret"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`
}
