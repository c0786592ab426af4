package rss_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRSSProperties(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "RSS protocol properties")
}
