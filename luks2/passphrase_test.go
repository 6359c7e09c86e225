// -*- Mode: Go; indent-tabs-mode: t -*-

package luks2_test

import (
	"os"
	"path/filepath"

	. "gopkg.in/check.v1"

	. "github.com/snapcore/luks2unlock/luks2"
)

type passphraseSuite struct{}

var _ = Suite(&passphraseSuite{})

func (s *passphraseSuite) TestFormatPromptWithoutPartition(c *C) {
	got := FormatPrompt("luks2", "", "2a1b9a3e-1234-4d56-8899-aabbccddeeff")
	c.Check(got, Equals, "Enter passphrase for luks2 (2a1b9a3e-1234-4d56-8899-aabbccddeeff): ")
}

func (s *passphraseSuite) TestFormatPromptWithPartition(c *C) {
	got := FormatPrompt("luks2", "gpt1", "2a1b9a3e-1234-4d56-8899-aabbccddeeff")
	c.Check(got, Equals, "Enter passphrase for luks2,gpt1 (2a1b9a3e-1234-4d56-8899-aabbccddeeff): ")
}

func (s *passphraseSuite) TestReadKeyFilePreservesEmbeddedNUL(c *C) {
	path := filepath.Join(c.MkDir(), "keyfile")
	contents := []byte("pass\x00word")
	c.Assert(os.WriteFile(path, contents, 0600), IsNil)

	got, err := ReadKeyFile(path)
	c.Assert(err, IsNil)
	c.Check(got, DeepEquals, contents)
}

func (s *passphraseSuite) TestReadKeyFileMissing(c *C) {
	_, err := ReadKeyFile(filepath.Join(c.MkDir(), "missing"))
	c.Check(err, ErrorMatches, `cannot read key file: .*`)
}
