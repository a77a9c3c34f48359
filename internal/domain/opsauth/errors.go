package opsauth

import "errors"

var ErrInvalidCredentials = errors.New("invalid username or password")
