//go:build tools
// +build tools

// Package tools pins mockgen, which regenerates the mocks/ package via
// `go generate ./...`.
package ftp_lab

import (
	_ "go.uber.org/mock/mockgen"
)
