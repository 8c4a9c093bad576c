package contract

// NotifierID is the unique identifier of a notification channel.
// NOTE: it lives in the contract package because it is shared by the
// config, notification and watcher packages, which must not import
// each other directly.
type NotifierID string
