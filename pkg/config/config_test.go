package config_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/envectorhq/envector-mcp/pkg/config"
)

var _ = Describe("Config", func() {
	Describe("InitViper", func() {
		It("applies the defaults", func() {
			v := config.InitViper()

			c, err := config.FromViper(v)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.API.Listen).To(Equal(":8080"))
			Expect(c.Engine.Provider).To(Equal("qdrant"))
			Expect(c.Engine.Host).To(Equal("localhost"))
			Expect(c.Engine.Port).To(Equal(6334))
			Expect(c.Embedding.Model).To(Equal("embeddinggemma"))
			Expect(c.Events.Brokers).To(BeEmpty())
		})

		It("reads environment overrides with the ENVECTOR_ prefix", func() {
			GinkgoT().Setenv("ENVECTOR_ENGINE_PROVIDER", "sqlitevec")
			GinkgoT().Setenv("ENVECTOR_API_LISTEN", ":9090")

			v := config.InitViper()

			Expect(v.GetString("engine.provider")).To(Equal("sqlitevec"))
			Expect(v.GetString("api.listen")).To(Equal(":9090"))
		})

		It("lets explicit settings win over defaults", func() {
			v := config.InitViper()
			v.Set("engine.port", 7000)

			c, err := config.FromViper(v)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Engine.Port).To(Equal(7000))
		})
	})
})
