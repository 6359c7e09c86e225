// -*- Mode: Go; indent-tabs-mode: t -*-

package luks2_test

import (
	. "gopkg.in/check.v1"

	. "github.com/snapcore/luks2unlock/internal/luks2"
	"github.com/snapcore/luks2unlock/internal/testutil"
)

type graphSuite struct{}

var _ = Suite(&graphSuite{})

const testKeyslot = `{
	"type": "luks2", "key_size": 64,
	"area": {"type": "raw", "offset": 32768, "size": 258048, "encryption": "aes-xts-plain64", "key_size": 64},
	"kdf": {"type": "pbkdf2", "salt": "AAAA", "hash": "sha256", "iterations": 1000},
	"af": {"type": "luks1", "hash": "sha256", "stripes": 4000}
}`

const testSegment = `{"type":"crypt","offset":16384,"size":"dynamic","encryption":"aes-xts-plain64","sector_size":512}`

const testDigest = `{
	"type": "pbkdf2", "keyslots": [0], "segments": [0],
	"salt": "AAAA", "digest": "AAAA", "hash": "sha256", "iterations": 1000
}`

func graphDoc(keyslots, segments, digests string) string {
	return `{"keyslots":{` + keyslots + `},"segments":{` + segments + `},"digests":{` + digests + `}}`
}

func (s *graphSuite) TestGetKeyslotResolves(c *C) {
	doc := graphDoc(`"0":`+testKeyslot, `"0":`+testSegment, `"5":`+testDigest)
	m, err := ParseMetadata([]byte(doc))
	c.Assert(err, IsNil)

	keyslotID, keyslot, digest, segment, err := GetKeyslot(m, 0)
	c.Assert(err, IsNil)
	c.Check(keyslotID, Equals, 0)
	c.Check(keyslot.KeySize, Equals, 64)
	c.Check(digest.Iterations, Equals, 1000)
	c.Check(segment.Size, Equals, "dynamic")
}

func (s *graphSuite) TestGetKeyslotUsesDocumentPositionNotIndex(c *C) {
	// The keyslot object key is 7, but it's the only entry, so position 0
	// in document order must resolve to keyslotID 7.
	doc := graphDoc(`"7":`+testKeyslot, `"0":`+testSegment, `"0":{
		"type": "pbkdf2", "keyslots": [7], "segments": [0],
		"salt": "AAAA", "digest": "AAAA", "hash": "sha256", "iterations": 1000
	}`)
	m, err := ParseMetadata([]byte(doc))
	c.Assert(err, IsNil)

	keyslotID, _, _, _, err := GetKeyslot(m, 0)
	c.Assert(err, IsNil)
	c.Check(keyslotID, Equals, 7)
}

func (s *graphSuite) TestGetKeyslotOutOfRange(c *C) {
	m, err := ParseMetadata([]byte(graphDoc("", "", "")))
	c.Assert(err, IsNil)

	_, _, _, _, err = GetKeyslot(m, 0)
	c.Check(err, ErrorMatches, `could not parse keyslot index`)
	c.Check(err, testutil.ErrorKindEquals, BadArgument)
}

func (s *graphSuite) TestGetKeyslotNoDigestCovers(c *C) {
	// Digest only covers keyslot 1, but we're resolving keyslot 0.
	doc := graphDoc(`"0":`+testKeyslot, `"0":`+testSegment, `"0":{
		"type": "pbkdf2", "keyslots": [1], "segments": [0],
		"salt": "AAAA", "digest": "AAAA", "hash": "sha256", "iterations": 1000
	}`)
	m, err := ParseMetadata([]byte(doc))
	c.Assert(err, IsNil)

	_, _, _, _, err = GetKeyslot(m, 0)
	c.Check(err, ErrorMatches, `no digest for keyslot`)
	c.Check(err, testutil.ErrorKindEquals, NotFound)
}

func (s *graphSuite) TestGetKeyslotNoSegmentCovers(c *C) {
	// Digest covers keyslot 0 but points at segment 9, which doesn't exist.
	doc := graphDoc(`"0":`+testKeyslot, `"0":`+testSegment, `"0":{
		"type": "pbkdf2", "keyslots": [0], "segments": [9],
		"salt": "AAAA", "digest": "AAAA", "hash": "sha256", "iterations": 1000
	}`)
	m, err := ParseMetadata([]byte(doc))
	c.Assert(err, IsNil)

	_, _, _, _, err = GetKeyslot(m, 0)
	c.Check(err, ErrorMatches, `no segment for digest`)
	c.Check(err, testutil.ErrorKindEquals, NotFound)
}

func (s *graphSuite) TestGetKeyslotNoDigestsAtAll(c *C) {
	doc := graphDoc(`"0":`+testKeyslot, `"0":`+testSegment, "")
	m, err := ParseMetadata([]byte(doc))
	c.Assert(err, IsNil)

	_, _, _, _, err = GetKeyslot(m, 0)
	c.Check(err, ErrorMatches, `could not get digests`)
}

func (s *graphSuite) TestGetKeyslotFirstMatchingDigestWins(c *C) {
	// Two digests both cover keyslot 0; document order picks the first.
	doc := graphDoc(`"0":`+testKeyslot, `"0":`+testSegment, `"0":{
		"type": "pbkdf2", "keyslots": [0], "segments": [0],
		"salt": "AAAA", "digest": "Zmlyc3Q=", "hash": "sha256", "iterations": 1
	},"1":{
		"type": "pbkdf2", "keyslots": [0], "segments": [0],
		"salt": "AAAA", "digest": "c2Vjb25k", "hash": "sha256", "iterations": 2
	}`)
	m, err := ParseMetadata([]byte(doc))
	c.Assert(err, IsNil)

	_, _, digest, _, err := GetKeyslot(m, 0)
	c.Assert(err, IsNil)
	c.Check(digest.Iterations, Equals, 1)
}
