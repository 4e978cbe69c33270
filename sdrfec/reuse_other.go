//go:build !unix

package sdrfec

import "syscall"

func reuseAddr(network, address string, c syscall.RawConn) error { return nil }
