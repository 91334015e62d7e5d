package source

import (
	"github.com/user/pawfeed/pkg/ports"
)

// Endpoints of the built-in providers.
const (
	NekosLifeURL = "https://nekos.life/api/v2/img/neko"
	ShibeURL     = "https://shibe.online/api/shibes?count=100&urls=true&httpsUrls=true"
	TheCatAPIURL = "https://api.thecatapi.com/v1/images/search?limit=10"
)

// NekosLife returns the nekos.life endpoint provider.
func NekosLife(fetcher ports.Fetcher, logger ports.Logger) *Endpoint {
	return NewEndpoint(EndpointOptions{
		Name:    "NekosLife",
		URL:     NekosLifeURL,
		Extract: JSONField("url"),
		Fetcher: fetcher,
		Logger:  logger,
	})
}

// ShibeOnline returns the shibe.online batch provider. Name, URL and
// Extract in opts are overwritten.
func ShibeOnline(opts BatchOptions) *BatchCache {
	opts.Name = "Shibe.online"
	opts.URL = ShibeURL
	opts.Extract = JSONStrings()
	if opts.Threshold <= 0 {
		opts.Threshold = 1
	}
	return NewBatchCache(opts)
}

// TheCatAPI returns TheCatAPI catalog, filtered by breed id.
func TheCatAPI(opts BatchOptions) *Catalog {
	opts.Name = "TheCatAPI"
	opts.URL = TheCatAPIURL
	opts.Extract = JSONObjects("url")
	if opts.Threshold <= 0 {
		opts.Threshold = 1
	}
	return NewCatalog(CatalogOptions{
		BatchOptions: opts,
		Param:        "breed_ids",
		Describe:     BreedName,
	})
}
