// -*- Mode: Go; indent-tabs-mode: t -*-

package luks2_test

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"

	"golang.org/x/crypto/xts"

	. "gopkg.in/check.v1"

	. "github.com/snapcore/luks2unlock/luks2"
)

type softwareDeviceSuite struct{}

var _ = Suite(&softwareDeviceSuite{})

func (s *softwareDeviceSuite) TestSetCipherRejectsUnknownCipher(c *C) {
	dev := &SoftwareDevice{}
	c.Check(dev.SetCipher("serpent", "xts-plain64"), ErrorMatches, `unsupported cipher "serpent"`)
}

func (s *softwareDeviceSuite) TestSetCipherRejectsUnknownMode(c *C) {
	dev := &SoftwareDevice{}
	c.Check(dev.SetCipher("aes", "cbc-plain"), ErrorMatches, `unsupported cipher mode "cbc-plain"`)
}

func (s *softwareDeviceSuite) TestSetCipherRejectsUnknownEssivHash(c *C) {
	dev := &SoftwareDevice{}
	c.Check(dev.SetCipher("aes", "cbc-essiv:sha1"), ErrorMatches, `unsupported ESSIV hash "sha1"`)
}

func (s *softwareDeviceSuite) TestDecryptBeforeSetCipher(c *C) {
	dev := &SoftwareDevice{}
	err := dev.Decrypt(make([]byte, 512), 0, 9)
	c.Check(err, ErrorMatches, `Decrypt called before SetCipher`)
}

func (s *softwareDeviceSuite) TestXTSRoundTrip(c *C) {
	key := bytes.Repeat([]byte{0x01}, 64)
	plain := bytes.Repeat([]byte{0xAB}, 1024) // two 512-byte sectors

	ref, err := xts.NewCipher(aes.NewCipher, key)
	c.Assert(err, IsNil)
	cipherText := make([]byte, len(plain))
	ref.Encrypt(cipherText[:512], plain[:512], 3)
	ref.Encrypt(cipherText[512:], plain[512:], 4)

	dev := &SoftwareDevice{}
	c.Assert(dev.SetCipher("aes", "xts-plain64"), IsNil)
	c.Assert(dev.SetKey(key), IsNil)

	buf := append([]byte(nil), cipherText...)
	c.Assert(dev.Decrypt(buf, 3, 9), IsNil)
	c.Check(buf, DeepEquals, plain)
}

func (s *softwareDeviceSuite) TestCBCEssivRoundTrip(c *C) {
	key := bytes.Repeat([]byte{0x02}, 32)
	plain := bytes.Repeat([]byte{0xCD}, 512)

	essivKeyArr := sha256.Sum256(key)
	essivBlock, err := aes.NewCipher(essivKeyArr[:])
	c.Assert(err, IsNil)
	iv := EssivIV(essivBlock, 7)

	dataBlock, err := aes.NewCipher(key)
	c.Assert(err, IsNil)
	cipherText := make([]byte, len(plain))
	cipher.NewCBCEncrypter(dataBlock, iv).CryptBlocks(cipherText, plain)

	dev := &SoftwareDevice{}
	c.Assert(dev.SetCipher("aes", "cbc-essiv:sha256"), IsNil)
	c.Assert(dev.SetKey(key), IsNil)

	buf := append([]byte(nil), cipherText...)
	c.Assert(dev.Decrypt(buf, 7, 9), IsNil)
	c.Check(buf, DeepEquals, plain)
}

func (s *softwareDeviceSuite) TestDecryptRejectsUnalignedBuffer(c *C) {
	dev := &SoftwareDevice{}
	c.Assert(dev.SetCipher("aes", "xts-plain64"), IsNil)
	c.Assert(dev.SetKey(bytes.Repeat([]byte{0x03}, 64)), IsNil)

	err := dev.Decrypt(make([]byte, 100), 0, 9)
	c.Check(err, ErrorMatches, `buffer length 100 is not a multiple of the sector size 512`)
}
