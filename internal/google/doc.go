// Package google provides credentials and HTTP clients for the Google APIs
// used by leadcal.
//
// Two credential sources are supported: an installed-app user token stored on
// disk (used for Calendar, so events are owned by a real user and can carry a
// Meet conference) and a service account key (used for Sheets). Both satisfy
// CredentialProvider. Credential failures are reported as apperror auth
// errors.
//
// HTTPClient wraps a token source in an oauth2 transport with an outbound
// token-bucket limiter, so every Google API call made by the server shares a
// single request budget.
package google
