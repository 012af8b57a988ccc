package main

import (
	"log"
	"os"

	ortho "github.com/kmkocot/Lophotrochozoa-phylogenomics-scripts-06-2015"
)

func registerLogger() {
	ortho.Info = log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)
	ortho.Warn = log.New(os.Stdout, "WARN: ", log.Ldate|log.Ltime|log.Lshortfile)
}
