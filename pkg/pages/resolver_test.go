package pages

import (
	"errors"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/pagekit/pkg/browser"
	"github.com/entrhq/pagekit/pkg/execution"
)

type stubPage struct {
	pc        *browser.PageContext
	navigated []string
}

func (s *stubPage) Locate(selector string) playwright.Locator { return nil }

func (s *stubPage) WaitFor(selector string) (playwright.Locator, error) { return nil, nil }

func (s *stubPage) Navigate(url string) (browser.NavigationResult, error) {
	s.navigated = append(s.navigated, url)
	return browser.NavigationResult{URL: url}, nil
}

func newStub(pc *browser.PageContext) (Object, error) {
	return &stubPage{pc: pc}, nil
}

func newTestResolver(t *testing.T, opts ...Option) *Resolver {
	t.Helper()
	r, err := NewResolver(opts...)
	require.NoError(t, err)
	return r
}

func shopContext() *execution.Context {
	return execution.New(1, "https://shop.example.com", "", nil)
}

func TestResolve_Relative(t *testing.T) {
	r := newTestResolver(t)
	require.NoError(t, r.Register("LoginPage", Path("/login"), newStub))

	url, err := r.Resolve("LoginPage", shopContext())
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/en-us/login", url)
}

func TestResolve_Absolute(t *testing.T) {
	r := newTestResolver(t)
	require.NoError(t, r.Register("StatusPage", Absolute("https://status.example.com/health?x=1"), newStub))

	url, err := r.Resolve("StatusPage", shopContext())
	require.NoError(t, err)
	assert.Equal(t, "https://status.example.com/health?x=1", url)

	// absolute pages need no execution context
	url, err = r.Resolve("StatusPage", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://status.example.com/health?x=1", url)
}

func TestResolve_Sections(t *testing.T) {
	tests := []struct {
		name string
		page string
		ec   *execution.Context
		want string
	}{
		{
			name: "back office name prefix",
			page: "BoDashboardPage",
			ec:   shopContext(),
			want: "https://shop.example.com/bo/dashboard",
		},
		{
			name: "back office base url",
			page: "BoDashboardPage",
			ec:   execution.New(1, "https://shop.example.com", "https://admin.example.com", nil),
			want: "https://admin.example.com/bo/dashboard",
		},
		{
			name: "public page ignores back office url",
			page: "FeedbackPage",
			ec:   execution.New(1, "https://shop.example.com", "https://admin.example.com", nil),
			want: "https://shop.example.com/en-us/feedback",
		},
	}

	r := newTestResolver(t)
	require.NoError(t, r.Register("BoDashboardPage", Path("dashboard"), newStub))
	require.NoError(t, r.Register("FeedbackPage", Path("/feedback"), newStub))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, err := r.Resolve(tt.page, tt.ec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, url)
		})
	}
}

func TestResolve_CollapsesSlashes(t *testing.T) {
	r := newTestResolver(t)
	require.NoError(t, r.Register("LoginPage", Path("//login//step"), newStub))

	url, err := r.Resolve("LoginPage", execution.New(1, "https://shop.example.com/", "", nil))
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/en-us/login/step", url)
}

func TestResolve_DerivedName(t *testing.T) {
	r := newTestResolver(t)
	require.NoError(t, r.Register("TwoFactorVerificationPage", Descriptor{}, newStub))

	url, err := r.Resolve("TwoFactorVerificationPage", shopContext())
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/en-us/two_factor_verification", url)
}

func TestResolve_CustomNameFuncAndRules(t *testing.T) {
	r := newTestResolver(t,
		WithNameFunc(func(name string) string { return "/custom" }),
		WithSectionRule("partner*", "partners", false),
		WithDefaultSection("de-de"),
	)
	require.NoError(t, r.Register("PartnerOverviewPage", Descriptor{}, newStub))
	require.NoError(t, r.Register("HomePage", Descriptor{}, newStub))

	url, err := r.Resolve("PartnerOverviewPage", shopContext())
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/partners/custom", url)

	url, err = r.Resolve("HomePage", shopContext())
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/de-de/custom", url)
}

func TestResolve_Missing(t *testing.T) {
	r := newTestResolver(t)

	_, err := r.Resolve("UnknownPage", shopContext())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingDescriptor)

	var me *MissingDescriptorError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "UnknownPage", me.Page)
}

func TestResolve_NoContext(t *testing.T) {
	r := newTestResolver(t)
	require.NoError(t, r.Register("LoginPage", Path("/login"), newStub))

	_, err := r.Resolve("LoginPage", nil)
	assert.ErrorIs(t, err, execution.ErrNoActiveSession)

	_, err = r.Resolve("LoginPage", execution.New(1, "", "", nil))
	assert.ErrorIs(t, err, ErrNoBaseURL)
}

func TestResolveWithParams(t *testing.T) {
	r := newTestResolver(t)
	require.NoError(t, r.Register("OrderPage", Path("/orders/%s/items/%d"), newStub))

	url, err := r.ResolveWithParams("OrderPage", shopContext(), "A-17", 3)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/en-us/orders/A-17/items/3", url)

	_, err = r.ResolveWithParams("OrderPage", shopContext(), "only-one")
	assert.ErrorIs(t, err, ErrBadParams)
}

func TestRegister_Validation(t *testing.T) {
	r := newTestResolver(t)

	assert.Error(t, r.Register("", Path("/x"), newStub))
	assert.Error(t, r.Register("NilPage", Path("/x"), nil))
	assert.Error(t, r.Register("EmptyAbsolutePage", Descriptor{Absolute: true}, newStub))

	require.NoError(t, r.Register("LoginPage", Path("/login"), newStub))
	assert.Error(t, r.Register("LoginPage", Path("/login"), newStub))
	assert.Panics(t, func() { r.MustRegister("LoginPage", Path("/login"), newStub) })

	assert.Equal(t, []string{"LoginPage"}, r.Names())
}

func TestNewResolver_BadPattern(t *testing.T) {
	_, err := NewResolver(WithSectionRule("[", "x", false))
	assert.Error(t, err)
}

func TestInstantiate(t *testing.T) {
	r := newTestResolver(t)
	require.NoError(t, r.Register("LoginPage", Path("/login"), newStub))

	obj, err := r.Instantiate("LoginPage", nil)
	require.NoError(t, err)
	assert.IsType(t, &stubPage{}, obj)
}

func TestInstantiate_Failures(t *testing.T) {
	r := newTestResolver(t)
	require.NoError(t, r.Register("BrokenPage", Path("/broken"), func(pc *browser.PageContext) (Object, error) {
		return nil, errors.New("missing field")
	}))
	require.NoError(t, r.Register("PanickingPage", Path("/panic"), func(pc *browser.PageContext) (Object, error) {
		panic("boom")
	}))
	require.NoError(t, r.Register("NilPage", Path("/nil"), func(pc *browser.PageContext) (Object, error) {
		return nil, nil
	}))

	for _, name := range []string{"BrokenPage", "PanickingPage", "NilPage"} {
		t.Run(name, func(t *testing.T) {
			obj, err := r.Instantiate(name, nil)
			assert.Nil(t, obj)

			var pie *PageInitializationError
			require.True(t, errors.As(err, &pie))
			assert.Equal(t, name, pie.Page)
		})
	}

	_, err := r.Instantiate("UnknownPage", nil)
	assert.ErrorIs(t, err, ErrMissingDescriptor)
}

func TestOpen(t *testing.T) {
	r := newTestResolver(t)
	require.NoError(t, r.Register("FeedbackPage", Path("/feedback"), newStub))

	obj, result, err := r.Open("FeedbackPage", shopContext(), nil)
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.com/en-us/feedback", result.URL)
	assert.Equal(t, []string{"https://shop.example.com/en-us/feedback"}, obj.(*stubPage).navigated)
}

func TestDefaultName(t *testing.T) {
	assert.Equal(t, "/login", DefaultName("LoginPage"))
	assert.Equal(t, "/two_factor_verification", DefaultName("TwoFactorVerificationPage"))
	assert.Equal(t, "/bo_dashboard", DefaultName("BoDashboardPage"))
	assert.Equal(t, "/", DefaultName("Page"))
}
