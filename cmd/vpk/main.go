// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	vpk "github.com/suprsokr/go-vpk"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

func main() {
	if len(os.Args) < 3 {
		printUsage()
		os.Exit(1)
	}

	operation := os.Args[1]
	switch operation {
	case "create":
		if err := handleCreate(); err != nil {
			log.Error().Err(err).Msg("create failed")
			os.Exit(1)
		}
	case "list":
		if err := handleList(); err != nil {
			log.Error().Err(err).Msg("list failed")
			os.Exit(1)
		}
	case "extract":
		if err := handleExtract(); err != nil {
			log.Error().Err(err).Msg("extract failed")
			os.Exit(1)
		}
	case "verify":
		if err := handleVerify(); err != nil {
			log.Error().Err(err).Msg("verify failed")
			os.Exit(1)
		}
	default:
		fmt.Println("Invalid operation:", operation)
		printUsage()
		os.Exit(1)
	}
}

// printUsage prints the command-line usage information
func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  vpk create input_dir [output.vpk]")
	fmt.Println("  vpk list archive.vpk")
	fmt.Println("  vpk extract archive.vpk [output_dir]")
	fmt.Println("  vpk verify archive.vpk")
}

// handleCreate builds an archive from a directory tree
func handleCreate() error {
	input := os.Args[2]
	output := filepath.Base(input) + ".vpk"
	if len(os.Args) >= 4 {
		output = os.Args[3]
	}

	archive := vpk.New()
	archive.SetLogger(log)

	if err := archive.AddDirectory(input); err != nil {
		return err
	}
	if err := archive.Save(output, true); err != nil {
		return err
	}

	log.Info().
		Str("output", output).
		Int("entries", len(archive.Entries())).
		Msg("archive created")
	return nil
}

// handleList prints the archive index
func handleList() error {
	entries, err := vpk.List(os.Args[2])
	if err != nil {
		return err
	}

	for _, e := range entries {
		fmt.Printf("%10d  %08x  %s\n", e.FileLength, e.CRC, e.FilePath())
	}
	log.Info().Int("entries", len(entries)).Msg("listed archive")
	return nil
}

// handleExtract unpacks an archive into a directory
func handleExtract() error {
	input := os.Args[2]
	output := strings.TrimSuffix(filepath.Base(input), ".vpk")
	if len(os.Args) >= 4 {
		output = os.Args[3]
	}

	archive, err := vpk.Open(input)
	if err != nil {
		return err
	}
	archive.SetLogger(log)

	if err := archive.Extract(output, true); err != nil {
		return err
	}

	log.Info().
		Str("output", output).
		Int("entries", len(archive.Entries())).
		Msg("archive extracted")
	return nil
}

// handleVerify checks the archive against its stored checksums
func handleVerify() error {
	mismatches, err := vpk.Verify(os.Args[2])
	if err != nil {
		return err
	}

	if len(mismatches) == 0 {
		log.Info().Msg("archive verified")
		return nil
	}
	for _, m := range mismatches {
		log.Warn().
			Str("kind", m.Kind).
			Str("path", m.Path).
			Str("stored", m.Want).
			Str("computed", m.Got).
			Msg("checksum mismatch")
	}
	return fmt.Errorf("%d checksum mismatches", len(mismatches))
}
