package router

// DefaultRoutes returns the dashboard route table guarded by p.
//
// Every page lives under the "/" layout. "/overview/configs" is public; the
// monitoring sections require the login flag.
func DefaultRoutes(p *Policy) []Route {
	auth := p.RequireAuth

	leaf := func(path, name, view, first, second string) Route {
		return Route{
			Path: path,
			Name: name,
			View: view,
			Meta: Meta{FirstMenu: first, SecondMenu: second},
		}
	}

	return []Route{
		{
			Path:        p.LoginPath(),
			Name:        "Login",
			View:        "login",
			Public:      true,
			BeforeEnter: p.LoginEntry,
		},
		{
			Path:     "/",
			Name:     "Layout",
			View:     "layout",
			Redirect: "/overview/configs",
			Children: []Route{
				{
					Path:        "/realtime",
					Name:        "RealTime",
					Redirect:    "/realtime/mainPage",
					BeforeEnter: auth,
					Children: []Route{
						leaf("/realtime/mainPage", "mainPage", "realtime", "/realtime", "/realtime"),
						leaf("/realtime/cpu", "cpu", "realtime", "/realtime", "/realtime"),
						leaf("/realtime/disk", "disk", "realtime", "/realtime", "/realtime"),
						leaf("/realtime/memory", "memory", "realtime", "/realtime", "/realtime"),
						leaf("/realtime/network", "network", "realtime", "/realtime", "/realtime"),
					},
				},
				{
					Path:        "/check",
					Name:        "Check",
					Redirect:    "/check/M1D1",
					BeforeEnter: auth,
					Children: []Route{
						leaf("/check/M1D1", "CheckM1D1", "check", "/check", "/check/M1D1"),
						leaf("/check/M1D2", "CheckM1D2", "check", "/check", "/check/M1D2"),
						leaf("/check/M1D3", "CheckM1D3", "check", "/check", "/check/M1D3"),
					},
				},
				{
					Path:        "/prediction",
					Name:        "Prediction",
					Redirect:    "/prediction/M1D0",
					BeforeEnter: auth,
					Children: []Route{
						leaf("/prediction/M1D0", "M1D0", "prediction", "/prediction", "/prediction/M1D0"),
						leaf("/prediction/M1D1", "PredictionM1D1", "prediction", "/prediction", "/prediction/M1D1"),
						leaf("/prediction/M1D2", "PredictionM1D2", "prediction", "/prediction", "/prediction/M1D2"),
						leaf("/prediction/M1D3", "PredictionM1D3", "prediction", "/prediction", "/prediction/M1D3"),
					},
				},
				{
					Path:   "/overview/configs",
					Name:   "ConfigManager",
					View:   "configs",
					Public: true,
					Meta:   Meta{FirstMenu: "/overview", SecondMenu: "/overview/configs"},
				},
				withGuard(leaf("/nft-report", "NFTReport", "nft-report", "/nft-report", "/nft-report"), auth),
				withGuard(leaf("/metaverse-hub", "MetaverseHub", "metaverse-hub", "/metaverse-hub", "/metaverse-hub"), auth),
				withGuard(leaf("/nft-market", "NFTMarket", "nft-market", "/nft-market", "/nft-market"), auth),
			},
		},
	}
}

func withGuard(r Route, g Guard) Route {
	r.BeforeEnter = g
	return r
}
