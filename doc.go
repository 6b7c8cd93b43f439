// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

/*
Package vpk provides pure Go support for reading and writing VPK (Valve Pack)
archives.

VPK is the archive format used by Source engine games to bundle many small
game assets into one pack file. This package supports VPK format versions 1
and 2, including the per-entry CRC-32 checksums and the composite MD5
checksums carried by version 2 archives.

# Features

  - Read and write VPK archives (versions 1 and 2)
  - Build archives from a directory tree or from in-memory data
  - Streamed entry data with bounded memory use
  - Integrity verification against stored CRC-32 and MD5 checksums
  - Cross-platform compatibility

# Basic Usage

Creating an archive from a directory:

	archive := vpk.New()
	if err := archive.AddDirectory("assets"); err != nil {
		log.Fatal(err)
	}
	if err := archive.Save("assets.vpk", true); err != nil {
		log.Fatal(err)
	}

Reading an archive:

	archive, err := vpk.Open("assets.vpk")
	if err != nil {
		log.Fatal(err)
	}

	if e, ok := archive.GetFile("txt", "", "readme"); ok {
		data, err := e.ReadAll()
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(string(data))
	}

Verifying an archive:

	mismatches, err := vpk.Verify("assets.vpk")
	if err != nil {
		log.Fatal(err)
	}
	for _, m := range mismatches {
		fmt.Println(m)
	}

# Path Conventions

Entries are addressed by (extension, relative path, file name), matching the
on-disk directory tree. The relative path uses forward slashes and is empty
for files at the archive root; both "resource" and "resource/" address the
same directory.

# Limitations

This package focuses on single-file VPK archives:

  - No support for multi-chunk "_dir" archives split across numbered files;
    entries referencing companion archives are listed but cannot be extracted
  - No support for preload data segments
  - No support for digital signature verification
  - No support for the Respawn-customized variant of the format
*/
package vpk
