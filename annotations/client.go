package annotations

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/joagonca/docview/log"
	"github.com/pkg/errors"
)

// EmptyXFDF is an annotation set without annotations.
const EmptyXFDF = `<?xml version="1.0" encoding="UTF-8" ?><xfdf xmlns="http://ns.adobe.com/xfdf/" xml:space="preserve"><annots /></xfdf>`

const tokenLifetime = 10 * time.Minute

var ErrNoServer = errors.New("server URL not defined, not configured for server-side annotation saving")

// Client loads and stores the XFDF annotations of one document on an
// annotation server. The XFDF content is passed through untouched.
type Client struct {
	ServerURL string
	// DocID is sent as the did query parameter when not empty.
	DocID string
	User  string
	Admin bool
	// Secret signs the bearer token; requests are anonymous without it.
	Secret string

	HTTPClient *http.Client
}

type userClaims struct {
	Admin bool `json:"admin,omitempty"`
	jwt.StandardClaims
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) endpoint() (string, error) {
	if c.ServerURL == "" {
		return "", ErrNoServer
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return "", errors.Wrap(err, "invalid annotation server URL")
	}
	if c.DocID != "" {
		q := u.Query()
		q.Set("did", c.DocID)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Token returns a signed bearer token for the current user.
func (c *Client) Token(now time.Time) (string, error) {
	claims := userClaims{
		Admin: c.Admin,
		StandardClaims: jwt.StandardClaims{
			Subject:   c.User,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(tokenLifetime).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(c.Secret))
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}
	return signed, nil
}

func (c *Client) authorize(req *http.Request) error {
	if c.Secret == "" {
		return nil
	}
	token, err := c.Token(time.Now())
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// Load fetches the annotations of the document. On any failure, or when the
// server has nothing, fallback is returned.
func (c *Client) Load(ctx context.Context, fallback string) string {
	data, err := c.fetch(ctx)
	if err != nil {
		log.Warning.Println("annotations could not be loaded from the server:", err)
		return fallback
	}
	if strings.TrimSpace(data) == "" {
		return fallback
	}
	return data
}

func (c *Client) fetch(ctx context.Context) (string, error) {
	endpoint, err := c.endpoint()
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Cache-Control", "no-cache")
	if err := c.authorize(req); err != nil {
		return "", err
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.Errorf("unexpected status %s", resp.Status)
	}
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read response")
	}
	return string(body), nil
}

// Save posts xfdf to the server as the data form field.
func (c *Client) Save(ctx context.Context, xfdf string) error {
	endpoint, err := c.endpoint()
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("data", xfdf)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if err := c.authorize(req); err != nil {
		return err
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send annotations to server")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("failed to send annotations to server: %s", resp.Status)
	}
	return nil
}
