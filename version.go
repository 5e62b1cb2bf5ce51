package main

import (
	_ "embed"
	"strings"
)

//go:embed version.txt
var versionFile string

var VoucherServiceVersion = strings.TrimSpace(versionFile)
