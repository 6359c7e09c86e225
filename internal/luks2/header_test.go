// -*- Mode: Go; indent-tabs-mode: t -*-

package luks2_test

import (
	"bytes"

	. "gopkg.in/check.v1"

	. "github.com/snapcore/luks2unlock/internal/luks2"
	"github.com/snapcore/luks2unlock/internal/testutil"
)

type headerSuite struct{}

var _ = Suite(&headerSuite{})

const testUUID = "12345678-1234-1234-1234-123456789abc"

func newTestContainer(primarySeqID, secondarySeqID uint64) []byte {
	const hdrSize = 16384
	primary := testutil.HeaderCopy{
		Magic:   [6]byte{'L', 'U', 'K', 'S', 0xBA, 0xBE},
		Version: 2,
		HdrSize: hdrSize,
		SeqId:   primarySeqID,
		Uuid:    testUUID,
	}
	secondary := testutil.HeaderCopy{
		Magic:   [6]byte{'S', 'K', 'U', 'L', 0xBA, 0xBE},
		Version: 2,
		HdrSize: hdrSize,
		SeqId:   secondarySeqID,
		Uuid:    testUUID,
	}
	return testutil.BuildContainer(primary, secondary, hdrSize, `{"keyslots":{},"segments":{},"digests":{}}`)
}

func (s *headerSuite) TestPrimaryWinsOnSeqId(c *C) {
	data := newTestContainer(10, 9)
	hdr, err := ReadHeader(bytes.NewReader(data))
	c.Assert(err, IsNil)
	c.Check(hdr.Primary, Equals, true)
	c.Check(hdr.Uuid, Equals, testUUID)
}

func (s *headerSuite) TestSecondaryWinsOnSeqId(c *C) {
	data := newTestContainer(9, 10)
	hdr, err := ReadHeader(bytes.NewReader(data))
	c.Assert(err, IsNil)
	c.Check(hdr.Primary, Equals, false)
}

func (s *headerSuite) TestPrimaryWinsOnTie(c *C) {
	data := newTestContainer(5, 5)
	hdr, err := ReadHeader(bytes.NewReader(data))
	c.Assert(err, IsNil)
	c.Check(hdr.Primary, Equals, true)
}

func (s *headerSuite) TestBadPrimaryVersion(c *C) {
	data := newTestContainer(10, 9)
	// version field is bytes [6:8] of the primary header copy, big-endian.
	data[6] = 0x00
	data[7] = 0x01

	_, err := ReadHeader(bytes.NewReader(data))
	c.Check(err, ErrorMatches, `cannot read primary header: bad header signature`)
}

func (s *headerSuite) TestBadPrimaryMagic(c *C) {
	data := newTestContainer(10, 9)
	data[0] = 'X'

	_, err := ReadHeader(bytes.NewReader(data))
	c.Check(err, ErrorMatches, `cannot read primary header: bad header signature`)
}

func (s *headerSuite) TestBadSecondaryMagic(c *C) {
	data := newTestContainer(10, 9)
	data[16384] = 'X'

	_, err := ReadHeader(bytes.NewReader(data))
	c.Check(err, ErrorMatches, `cannot read secondary header: bad header signature`)
}
