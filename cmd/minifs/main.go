package main

import (
	"fmt"
	"log"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/urfave/cli/v2"

	"minifs/fs"
	"minifs/profiles"
	"minifs/volume"
)

// Config carries the shell's environment-driven settings. Flags override it.
type Config struct {
	// Image is the path of the backing volume image file.
	Image string `envconfig:"IMAGE" default:"filesystem.dat"`
	// Autosave writes the image back on shell exit.
	Autosave bool `envconfig:"AUTOSAVE" default:"true"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("minifs", &cfg); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}

	app := cli.App{
		Name:  "minifs",
		Usage: "Manage and explore simulated file system volume images",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "image",
				Usage:       "path of the volume image file",
				Value:       cfg.Image,
				Destination: &cfg.Image,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "shell",
				Usage: "Open an interactive shell on the image",
				Action: func(ctx *cli.Context) error {
					return runShell(cfg)
				},
			},
			{
				Name:      "format",
				Usage:     "Create a freshly formatted image",
				ArgsUsage: "[--profile SLUG]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "profile",
						Usage: "volume profile slug (see `minifs profiles`)",
						Value: "standard",
					},
				},
				Action: func(ctx *cli.Context) error {
					return formatImage(cfg, ctx.String("profile"))
				},
			},
			{
				Name:  "profiles",
				Usage: "List the available volume profiles",
				Action: func(ctx *cli.Context) error {
					return listProfiles(ctx)
				},
			},
			{
				Name:  "check",
				Usage: "Run the volume integrity check and print a report",
				Action: func(ctx *cli.Context) error {
					return checkImage(cfg)
				},
			},
		},
		// No subcommand drops straight into the shell.
		Action: func(ctx *cli.Context) error {
			return runShell(cfg)
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func formatImage(cfg Config, profileSlug string) error {
	profile, err := profiles.Get(profileSlug)
	if err != nil {
		return err
	}

	filesystem, err := fs.Format(profile.Geometry())
	if err != nil {
		return err
	}

	file, err := os.Create(cfg.Image)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := filesystem.Save(file); err != nil {
		return err
	}
	log.Printf("formatted %s as %q (%d blocks of %d bytes, %d inodes)",
		cfg.Image, profile.Name, profile.TotalBlocks, profile.BlockSize, profile.MaxInodes)
	return nil
}

func listProfiles(ctx *cli.Context) error {
	all, err := profiles.All()
	if err != nil {
		return err
	}
	for _, p := range all {
		fmt.Fprintf(ctx.App.Writer, "%-10s %s (%d x %dB blocks, %d inodes)\n",
			p.Slug, p.Name, p.TotalBlocks, p.BlockSize, p.MaxInodes)
	}
	return nil
}

func checkImage(cfg Config) error {
	filesystem, err := openImage(cfg.Image)
	if err != nil {
		return err
	}

	report := filesystem.Check()
	fmt.Printf("free block list: %d blocks\n", report.FreeBlockListLength)
	fmt.Printf("free inode list: %d inodes\n", report.FreeInodeListLength)
	if report.Err != nil {
		return report.Err
	}
	fmt.Println("no problems found")
	return nil
}

// openImage loads an existing image file, or formats a fresh default volume
// when the file does not exist yet.
func openImage(path string) (*fs.FileSystem, error) {
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		log.Printf("%s not found, formatting a fresh volume", path)
		return fs.Format(volume.DefaultGeometry)
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return fs.Load(file)
}

func saveImage(filesystem *fs.FileSystem, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return filesystem.Save(file)
}
