package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"minifs/fs"
	"minifs/volume"
)

// runShell drives the interactive command loop. The loop owns tokenizing and
// all human-readable formatting; every verb maps 1:1 to a file system
// operation.
func runShell(cfg Config) error {
	filesystem, err := openImage(cfg.Image)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("fs:%s> ", filesystem.WorkingDir())
		if !scanner.Scan() {
			break
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "exit" {
			break
		}
		if err := dispatch(filesystem, fields[0], fields[1:]); err != nil {
			fmt.Printf("Error: %s\n", err.Error())
		}
	}

	if cfg.Autosave {
		return saveImage(filesystem, cfg.Image)
	}
	return nil
}

func dispatch(filesystem *fs.FileSystem, verb string, args []string) error {
	switch verb {
	case "touch":
		if len(args) < 2 {
			return fmt.Errorf("usage: touch <name> <size>")
		}
		size, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("invalid size %q", args[1])
		}
		return filesystem.CreateFile(args[0], uint32(size))

	case "rm":
		if len(args) < 1 {
			return fmt.Errorf("usage: rm <name>")
		}
		return filesystem.RemoveFile(args[0])

	case "mkdir":
		if len(args) < 1 {
			return fmt.Errorf("usage: mkdir <name>")
		}
		return filesystem.MakeDir(args[0])

	case "rmdir":
		if len(args) < 1 {
			return fmt.Errorf("usage: rmdir <name>")
		}
		return filesystem.RemoveDir(args[0])

	case "cd":
		if len(args) < 1 {
			return nil
		}
		return filesystem.ChangeDir(args[0])

	case "ls":
		path := ""
		if len(args) > 0 {
			path = args[0]
		}
		return printListing(filesystem, path)

	case "cp":
		if len(args) < 2 {
			return fmt.Errorf("usage: cp <src> <dest>")
		}
		return filesystem.Copy(args[0], args[1])

	case "cat":
		if len(args) < 1 {
			return fmt.Errorf("usage: cat <name>")
		}
		content, err := filesystem.ReadFile(args[0])
		if err != nil {
			return err
		}
		os.Stdout.Write(content)
		fmt.Println()
		return nil

	case "write":
		if len(args) < 2 {
			return fmt.Errorf("usage: write <name> <text>")
		}
		return filesystem.WriteFile(args[0], []byte(strings.Join(args[1:], " ")))

	case "sum":
		printSummary(filesystem.Summary())
		return nil

	case "debug":
		printDebugReport(filesystem)
		return nil

	default:
		return fmt.Errorf(
			"unknown command %q; available: exit, touch, rm, mkdir, rmdir, cd, ls, cp, cat, write, sum, debug",
			verb)
	}
}

func printListing(filesystem *fs.FileSystem, path string) error {
	entries, err := filesystem.ListDir(path)
	if err != nil {
		return err
	}
	fs.SortEntriesByName(entries)

	where := path
	if where == "" {
		where = filesystem.WorkingDir()
	}
	fmt.Printf("Contents of %s:\n", where)
	fmt.Println("Name                           Type       Size       Modified")
	fmt.Println("------------------------------------------------------------")
	for _, entry := range entries {
		kind := "File"
		if entry.Kind == volume.KindDirectory {
			kind = "Directory"
		}
		fmt.Printf("%-30s %-10s %10d  %s\n",
			entry.Name, kind, entry.Size, entry.ModifiedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func printSummary(s fs.Summary) {
	fmt.Println("File System Summary:")
	fmt.Println("-------------------")
	fmt.Printf("Total space: %d bytes (%d blocks)\n", s.TotalBytes, s.TotalBlocks)
	fmt.Printf("Used space: %d bytes (%d blocks, %.1f%%)\n",
		s.UsedBytes, s.UsedBlocks, float64(s.UsedBlocks)*100.0/float64(s.TotalBlocks))
	fmt.Printf("Free space: %d bytes (%d blocks, %.1f%%)\n",
		s.FreeBytes, s.FreeBlocks, float64(s.FreeBlocks)*100.0/float64(s.TotalBlocks))
	fmt.Printf("Inodes: %d used, %d free, %d total\n",
		s.UsedInodes, s.FreeInodes, s.TotalInodes)
}

func printDebugReport(filesystem *fs.FileSystem) {
	sb := filesystem.Volume().ReadSuperBlock()
	fmt.Println("=== File System Debug Information ===")
	fmt.Printf("Block size: %d bytes\n", sb.BlockSize)
	fmt.Printf("Total blocks: %d\n", sb.TotalBlocks)
	fmt.Printf("Free blocks: %d\n", sb.FreeBlocks)
	fmt.Printf("First free block: %d\n", sb.FirstFreeBlock)
	fmt.Printf("Total inodes: %d\n", sb.MaxInodes)
	fmt.Printf("Free inodes: %d\n", sb.FreeInodes)
	fmt.Printf("First free inode: %d\n", sb.FirstFreeInode)

	report := filesystem.Check()
	fmt.Printf("Counted %d blocks in free list (should be %d)\n",
		report.FreeBlockListLength, sb.FreeBlocks)
	fmt.Printf("Counted %d inodes in free list (should be %d)\n",
		report.FreeInodeListLength, sb.FreeInodes)
	if report.Err != nil {
		fmt.Printf("WARNING: %s\n", report.Err.Error())
	}
}
