package redisx

const (
	// product:slug:{slug} -> product JSON
	KeyProductSlug     = "product:slug:%s"
	PatternProductSlug = "product:slug:*"

	// banners:public:{type} -> active banners JSON, "all" when unfiltered
	KeyBannerList     = "banners:public:%s"
	PatternBannerList = "banners:public:*"
)
