package common

// AuthorizationHeaderName is the HTTP header carrying the bearer credential.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the authorization scheme accepted by the authentication gate.
const BearerScheme = "Bearer"

// EnvPrefix prefixes every environment variable read by the server config.
const EnvPrefix = "GOPHREDDIT_"
