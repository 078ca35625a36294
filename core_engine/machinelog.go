package core_engine

import (
	"log"
	"os"
)

// Log is the machine-wide diagnostic sink. Device handlers keep using bare
// fmt.Printf for their own register-level trace (matching the existing
// device files). cmd/halfix writes its driver messages to Log; the
// execution loop and the devices package do not write to it.
var Log = log.New(os.Stderr, "halfix: ", log.LstdFlags)
