package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joagonca/docview/config"
	"github.com/joagonca/docview/document"
	"github.com/joagonca/docview/log"
	"github.com/joagonca/docview/shell"
	"github.com/joagonca/docview/viewer"
)

const defaultPanelHeight = 800

func main() {
	configPath := flag.String("config", "", "path to the configuration file")
	pdftoppm := flag.String("pdftoppm", "", "pdftoppm binary to render pages with")
	height := flag.Float64("height", defaultPanelHeight, "initial thumbnail panel height")
	doc := flag.String("open", "", "document to open on start")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [options] [command]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	log.InitLog()

	path := *configPath
	if path == "" {
		var err error
		if path, err = config.ConfigPath(); err != nil {
			log.Error.Fatalln(err)
		}
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Error.Fatalln(err)
	}

	ctrl := viewer.New(viewer.Options{
		Config:   cfg,
		Renderer: document.Pdftoppm{Binary: *pdftoppm},
	})
	defer ctrl.Close()

	if *doc != "" {
		if err := shell.RunShell(ctrl, *height, path, []string{"open", *doc}); err != nil {
			log.Error.Println(err)
		}
	}

	if err := shell.RunShell(ctrl, *height, path, flag.Args()); err != nil {
		log.Error.Println(err)
		ctrl.Close()
		os.Exit(1)
	}
}
