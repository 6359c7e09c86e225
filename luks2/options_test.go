// -*- Mode: Go; indent-tabs-mode: t -*-

package luks2_test

import (
	. "gopkg.in/check.v1"

	. "github.com/snapcore/luks2unlock/luks2"
)

type optionsSuite struct{}

var _ = Suite(&optionsSuite{})

func (s *optionsSuite) TestValidateDefaultOK(c *C) {
	opts := &UnlockOptions{}
	c.Check(opts.Validate(), IsNil)
}

func (s *optionsSuite) TestValidateRejectsBootMode(c *C) {
	opts := &UnlockOptions{CheckBoot: true}
	c.Check(opts.Validate(), ErrorMatches, `boot-mode unlock is not supported`)
}
