// Package config loads the channel→destination mapping from a YAML file at
// process start. Each entry maps a channel name to a webhook URL and an
// optional kind tag. The mapping is immutable once loaded and is shared by
// all request handlers without locking; Watch only reports on-disk drift so
// operators know a restart is needed to pick up changes.
package config
