package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/envectorhq/envector-mcp/api/mcp"
	"github.com/envectorhq/envector-mcp/pkg/engine"
	testutils "github.com/envectorhq/envector-mcp/pkg/utils/test"
)

var _ = Describe("API server", func() {
	var server *Server

	BeforeEach(func() {
		facade, err := engine.NewFacade(testutils.NewMockEngine(), zap.NewNop())
		Expect(err).NotTo(HaveOccurred())

		mcpServer, err := mcp.NewServer(mcp.Config{
			Facade: facade,
			Logger: zap.NewNop(),
		})
		Expect(err).NotTo(HaveOccurred())

		server = NewServer(Config{ListenAddr: ":0"}, mcpServer, zap.NewNop())
	})

	It("serves the health probe", func() {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, err := server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())

		var health HealthResponse
		Expect(json.Unmarshal(body, &health)).To(Succeed())
		Expect(health.Status).To(Equal("ok"))
	})

	It("mounts the MCP endpoint", func() {
		req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
		resp, err := server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()

		// The streamable HTTP transport answers the request itself; the
		// route must exist.
		Expect(resp.StatusCode).NotTo(Equal(http.StatusNotFound))
	})
})
