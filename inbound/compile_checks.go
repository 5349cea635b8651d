package inbound

import "github.com/goliatone/go-delivery-timelines/session"

var _ session.Submitter = (*Handler)(nil)
