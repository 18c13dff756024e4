package svc

import "errors"

var (
	// ErrNoSourcesEnabled 配置中没有启用任何 oracle
	ErrNoSourcesEnabled = errors.New("no oracle sources enabled")
	// ErrStorageInitFailed wraps sqlite / postgres / redis startup failures.
	ErrStorageInitFailed = errors.New("storage initialization failed")
)
