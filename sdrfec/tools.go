//go:build tools

package sdrfec

import (
	_ "go.uber.org/mock/mockgen"
)
