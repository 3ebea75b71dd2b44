/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package nae_test

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestNAE(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, t.Name())
}
