package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"

	"github.com/carlmjohnson/versioninfo"
	"github.com/chzyer/readline"
	"github.com/urfave/cli/v2"

	"filesig/domain/signature"
	"filesig/infra/loader"
	"filesig/pkg/logger"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	app := cli.App{
		Name:      "filecheck",
		Usage:     "check a file's leading bytes against the signature catalog",
		UsageText: "filecheck [options] [path]",
		Version:   versioninfo.Short(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "signatures",
				Aliases: []string{"s"},
				Usage:   "signature file, one extension,signature,length per line",
				Value:   "FileSignature.txt",
				EnvVars: []string{"FILESIG_SIGNATURE_FILE"},
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "check log, appended to",
				Value:   "log.txt",
				EnvVars: []string{"FILECHECK_LOG_FILE"},
			},
			&cli.BoolFlag{
				Name:  "dump",
				Usage: "print the catalog tree before checking",
			},
		},
		Action: runCheck,
	}
	return app.Run(args)
}

func runCheck(cctx *cli.Context) error {
	log, err := logger.New(logger.Config{
		Level:      "info",
		OutputFile: cctx.String("log-file"),
		Service:    "filecheck",
	})
	if err != nil {
		return err
	}
	defer log.Sync()

	cat := signature.NewCatalog()
	if _, err := loader.New(log).LoadFile(cctx.Context, cctx.String("signatures"), cat.Add); err != nil {
		return err
	}
	defer cat.Reset()

	out := cctx.App.Writer
	if cctx.Bool("dump") {
		if err := cat.Print(out); err != nil {
			return err
		}
	}

	path := cctx.Args().First()
	if path == "" {
		if path, err = prompt("Enter the file path: "); err != nil {
			return err
		}
	}

	return newChecker(cat, log).check(out, path)
}

// prompt reads one path from the terminal.
func prompt(text string) (string, error) {
	rl, err := readline.New(text)
	if err != nil {
		return "", err
	}
	defer rl.Close()

	line, err := rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return "", errors.New("no file path entered")
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
