package extraction

import (
	"context"
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("OpenAI", func() {
	var (
		upstream *ghttp.Server
		provider *OpenAI
	)

	// The MIME type is already PNG so no conversion touches the fake bytes.
	imageData := []byte("fake image data")

	BeforeEach(func() {
		upstream = ghttp.NewServer()
		var err error
		provider, err = NewOpenAI("test-key", upstream.URL(), "gpt-4-turbo")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		upstream.Close()
	})

	It("requires an API key", func() {
		_, err := NewOpenAI("", "", "")
		Expect(err).To(HaveOccurred())
	})

	When("the model answers with a function call", func() {
		BeforeEach(func() {
			upstream.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("POST", "/v1/chat/completions"),
				ghttp.VerifyHeaderKV("Authorization", "Bearer test-key"),
				ghttp.VerifyContentType("application/json"),
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"choices": []any{
						map[string]any{
							"message": map[string]any{
								"function_call": map[string]any{
									"name":      "extract_vaccination_data",
									"arguments": validArguments,
								},
							},
						},
					},
				}),
			))
		})

		It("returns the parsed card data", func() {
			data, err := provider.ExtractCard(context.Background(), imageData, "image/png")
			Expect(err).NotTo(HaveOccurred())
			Expect(data.Patient.Name).To(Equal("Maria da Silva"))
			Expect(data.Records).To(HaveLen(2))
		})
	})

	When("the model is rate limited", func() {
		BeforeEach(func() {
			upstream.AppendHandlers(ghttp.RespondWith(http.StatusTooManyRequests, `{"error": {"message": "rate limit"}}`))
		})

		It("returns ErrRateLimited", func() {
			_, err := provider.ExtractCard(context.Background(), imageData, "image/png")
			Expect(errors.Is(err, ErrRateLimited)).To(BeTrue())
		})
	})

	When("the upstream call fails", func() {
		BeforeEach(func() {
			upstream.AppendHandlers(ghttp.RespondWith(http.StatusBadGateway, "upstream exploded"))
		})

		It("returns ErrUpstream without the raw body", func() {
			_, err := provider.ExtractCard(context.Background(), imageData, "image/png")
			Expect(errors.Is(err, ErrUpstream)).To(BeTrue())
			Expect(err.Error()).NotTo(ContainSubstring("upstream exploded"))
		})
	})

	When("the response carries no function call", func() {
		BeforeEach(func() {
			upstream.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
				"choices": []any{
					map[string]any{
						"message": map[string]any{"content": "Não consegui ler a imagem."},
					},
				},
			}))
		})

		It("returns ErrNoStructuredOutput", func() {
			_, err := provider.ExtractCard(context.Background(), imageData, "image/png")
			Expect(errors.Is(err, ErrNoStructuredOutput)).To(BeTrue())
		})
	})

	When("the response has no choices", func() {
		BeforeEach(func() {
			upstream.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
				"choices": []any{},
			}))
		})

		It("returns ErrNoStructuredOutput", func() {
			_, err := provider.ExtractCard(context.Background(), imageData, "image/png")
			Expect(errors.Is(err, ErrNoStructuredOutput)).To(BeTrue())
		})
	})
})
