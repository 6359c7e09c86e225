// -*- Mode: Go; indent-tabs-mode: t -*-

package luks2_test

import (
	"bytes"
	"crypto"
	_ "crypto/sha256"

	. "gopkg.in/check.v1"

	. "github.com/snapcore/luks2unlock/internal/luks2"
	"github.com/snapcore/luks2unlock/internal/pbkdf2"
	"github.com/snapcore/luks2unlock/internal/testutil"
)

type cryptoSuite struct{}

var _ = Suite(&cryptoSuite{})

// mockDevice is an identity Device: Decrypt leaves its buffer untouched, so
// tests can plant already-"decrypted" bytes directly in the fake source
// and assert on what SetCipher/SetKey were called with.
type mockDevice struct {
	cipherName string
	modeWithIV string
	key        []byte
}

func (d *mockDevice) SetCipher(cipherName, modeWithIV string) error {
	d.cipherName = cipherName
	d.modeWithIV = modeWithIV
	return nil
}

func (d *mockDevice) SetKey(key []byte) error {
	d.key = key
	return nil
}

func (d *mockDevice) Decrypt(buf []byte, startSector uint64, logSectorSize uint) error {
	return nil
}

func (s *cryptoSuite) TestSplitCipher(c *C) {
	cipherName, modeWithIV, err := SplitCipher("aes-xts-plain64")
	c.Assert(err, IsNil)
	c.Check(cipherName, Equals, "aes")
	c.Check(modeWithIV, Equals, "xts-plain64")
}

func (s *cryptoSuite) TestSplitCipherInvalid(c *C) {
	_, _, err := SplitCipher("nodash")
	c.Check(err, ErrorMatches, `invalid encryption`)
	c.Check(err, testutil.ErrorKindEquals, BadArgument)
}

func (s *cryptoSuite) TestDecryptKeyAndVerify(c *C) {
	masterKey := bytes.Repeat([]byte{0x42}, 32)
	splitKey, err := AfSplit(crypto.SHA256, masterKey, 16)
	c.Assert(err, IsNil)
	c.Check(len(splitKey), Equals, 512)

	keyslot := &Keyslot{
		Type:    KeyslotTypeLUKS2,
		KeySize: 32,
		Area: Area{
			Type:       AreaTypeRaw,
			Offset:     0,
			Size:       512,
			Encryption: "aes-xts-plain64",
			KeySize:    64,
		},
		KDF: KDF{
			Type: KDFTypePBKDF2,
			Salt: []byte("keyslotsalt"),
			PBKDF2: &PBKDF2Params{
				Hash:       HashSHA256,
				Iterations: 10,
			},
		},
		AF: AF{
			Type:    AFTypeLUKS1,
			Hash:    HashSHA256,
			Stripes: 16,
		},
	}

	dev := &mockDevice{}
	src := bytes.NewReader(splitKey)

	got, err := DecryptKey(keyslot, []byte("passphrase"), dev, src)
	c.Assert(err, IsNil)
	c.Check(got, DeepEquals, masterKey)
	c.Check(dev.cipherName, Equals, "aes")
	c.Check(dev.modeWithIV, Equals, "xts-plain64")

	expected, err := pbkdf2.Key(got, []byte("digestsalt"), &pbkdf2.Params{Iterations: 10, HashAlg: crypto.SHA256}, 32)
	c.Assert(err, IsNil)
	digest := &Digest{
		Type:       "pbkdf2",
		Salt:       []byte("digestsalt"),
		Digest:     expected,
		Hash:       HashSHA256,
		Iterations: 10,
	}
	c.Check(VerifyKey(digest, got), IsNil)
}

func (s *cryptoSuite) TestDecryptKeyArgon2Rejected(c *C) {
	keyslot := &Keyslot{
		KeySize: 32,
		Area:    Area{Encryption: "aes-xts-plain64", Size: 512},
		KDF: KDF{
			Type:   KDFTypeArgon2id,
			Salt:   []byte("salt"),
			Argon2: &Argon2Params{Time: 4, Memory: 1048576, Cpus: 4},
		},
		AF: AF{Hash: HashSHA256, Stripes: 16},
	}
	_, err := DecryptKey(keyslot, []byte("passphrase"), &mockDevice{}, bytes.NewReader(make([]byte, 512)))
	c.Check(err, ErrorMatches, `Argon2 not supported`)
	c.Check(err, testutil.ErrorKindEquals, BadArgument)
}

func (s *cryptoSuite) TestDecryptKeyAreaSizeNotAligned(c *C) {
	keyslot := &Keyslot{
		KeySize: 32,
		Area:    Area{Encryption: "aes-xts-plain64", Size: 100, KeySize: 64},
		KDF: KDF{
			Type:   KDFTypePBKDF2,
			Salt:   []byte("salt"),
			PBKDF2: &PBKDF2Params{Hash: HashSHA256, Iterations: 10},
		},
		AF: AF{Hash: HashSHA256, Stripes: 16},
	}
	_, err := DecryptKey(keyslot, []byte("passphrase"), &mockDevice{}, bytes.NewReader(make([]byte, 100)))
	c.Check(err, ErrorMatches, `key area size is not sector aligned`)
}

func (s *cryptoSuite) TestDecryptKeyMissingSalt(c *C) {
	keyslot := &Keyslot{
		KeySize: 32,
		Area:    Area{Encryption: "aes-xts-plain64", Size: 512},
		KDF:     KDF{Type: KDFTypePBKDF2},
		AF:      AF{Hash: HashSHA256, Stripes: 16},
	}
	_, err := DecryptKey(keyslot, []byte("passphrase"), &mockDevice{}, bytes.NewReader(make([]byte, 512)))
	c.Check(err, ErrorMatches, `invalid keyslot salt`)
}

func (s *cryptoSuite) TestVerifyKeyMismatch(c *C) {
	digest := &Digest{
		Salt:       []byte("salt"),
		Digest:     []byte("expected-digest-bytes"),
		Hash:       HashSHA256,
		Iterations: 10,
	}
	err := VerifyKey(digest, []byte("wrong candidate key"))
	c.Check(err, ErrorMatches, `mismatching digests`)
	c.Check(err, testutil.ErrorKindEquals, AccessDenied)
}

func (s *cryptoSuite) TestVerifyKeyMissingFields(c *C) {
	err := VerifyKey(&Digest{Hash: HashSHA256}, []byte("candidate"))
	c.Check(err, ErrorMatches, `invalid digest`)
	c.Check(err, testutil.ErrorKindEquals, BadArgument)
}
