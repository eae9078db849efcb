// Package emr provisions an EMR persistent app UI and turns it into a
// cookie-authenticated session against the cluster's Spark History
// Server.
package emr

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/arn"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	awsemr "github.com/aws/aws-sdk-go/service/emr"
	"github.com/looplab/fsm"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/xiongbo-sjtu/mcp-apache-spark-history-server/pkg/core/common/httpclient"
)

const uiTypeSparkHistoryServer = "SHS"

const uiStatusAttached = "ATTACHED"

// sessionHeaders make the presigned-URL handshake look like a browser
// visit, which is what the UI proxy expects before it hands out its
// auth cookies.
var sessionHeaders = map[string]string{
	"User-Agent":                "EMR-Persistent-UI-Client/1.0",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"Accept-Encoding":           "gzip, deflate",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
}

// persistentUIAPI is the slice of the EMR API the bootstrap needs.
type persistentUIAPI interface {
	CreatePersistentAppUIWithContext(aws.Context, *awsemr.CreatePersistentAppUIInput, ...request.Option) (*awsemr.CreatePersistentAppUIOutput, error)
	DescribePersistentAppUIWithContext(aws.Context, *awsemr.DescribePersistentAppUIInput, ...request.Option) (*awsemr.DescribePersistentAppUIOutput, error)
	GetPersistentAppUIPresignedURLWithContext(aws.Context, *awsemr.GetPersistentAppUIPresignedURLInput, ...request.Option) (*awsemr.GetPersistentAppUIPresignedURLOutput, error)
}

// PersistentUIClient walks the four bootstrap steps for one cluster.
// A failed bootstrap leaves the client stuck in its intermediate state;
// retries go through a fresh client, never by resuming a partial one.
type PersistentUIClient struct {
	clusterARN string
	api        persistentUIAPI
	httpClient *http.Client
	state      *fsm.FSM
	logger     *log.Entry

	uiID         string
	presignedURL string
	baseURL      string
}

// New builds a bootstrap client for the given cluster ARN.  The AWS
// region is taken from the ARN itself.
func New(clusterARN string, httpConf httpclient.HTTPConfig) (*PersistentUIClient, error) {
	parsed, err := arn.Parse(clusterARN)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid EMR cluster ARN %s", clusterARN)
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(parsed.Region),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "could not create AWS session for region %s", parsed.Region)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.WithMessage(err, "could not create cookie jar")
	}
	httpClient, err := httpConf.BuildWithJar(jar)
	if err != nil {
		return nil, err
	}

	return newWithAPI(clusterARN, awsemr.New(sess), httpClient), nil
}

func newWithAPI(clusterARN string, api persistentUIAPI, httpClient *http.Client) *PersistentUIClient {
	logger := log.WithFields(log.Fields{"emrCluster": clusterARN})
	return &PersistentUIClient{
		clusterARN: clusterARN,
		api:        api,
		httpClient: httpClient,
		state:      newBootstrapState(logger),
		logger:     logger,
	}
}

// State returns the current bootstrap state name.
func (c *PersistentUIClient) State() string { return c.state.Current() }

// BaseURL returns the scheme://host of the presigned URL.  Empty until
// the URL has been obtained.
func (c *PersistentUIClient) BaseURL() string { return c.baseURL }

func (c *PersistentUIClient) guard(event bootstrapEvent, step string) error {
	if !c.state.Can(event.String()) {
		return &BootstrapStateError{Step: step, State: c.state.Current()}
	}
	return nil
}

// CreateUI provisions the persistent app UI for the cluster.
func (c *PersistentUIClient) CreateUI(ctx context.Context) error {
	if err := c.guard(createUI, "create persistent app UI"); err != nil {
		return err
	}

	out, err := c.api.CreatePersistentAppUIWithContext(ctx, &awsemr.CreatePersistentAppUIInput{
		TargetResourceArn: aws.String(c.clusterARN),
	})
	if err != nil {
		return errors.WithMessage(err, "could not create persistent app UI")
	}

	c.uiID = aws.StringValue(out.PersistentAppUIId)
	c.logger.WithField("persistentAppUIId", c.uiID).Info("Created persistent app UI")
	return c.state.Event(ctx, createUI.String())
}

// DescribeUI verifies that the persistent app UI is attached.  A UI in
// any other state fails the bootstrap; there is no polling here.
func (c *PersistentUIClient) DescribeUI(ctx context.Context) error {
	if err := c.guard(describeUI, "describe persistent app UI"); err != nil {
		return err
	}

	out, err := c.api.DescribePersistentAppUIWithContext(ctx, &awsemr.DescribePersistentAppUIInput{
		PersistentAppUIId: aws.String(c.uiID),
	})
	if err != nil {
		return errors.WithMessagef(err, "could not describe persistent app UI %s", c.uiID)
	}

	var status string
	if out.PersistentAppUI != nil {
		status = aws.StringValue(out.PersistentAppUI.PersistentAppUIStatus)
	}
	if status != uiStatusAttached {
		return &BootstrapStateError{
			Step:   "describe persistent app UI",
			State:  c.state.Current(),
			Reason: fmt.Sprintf("persistent UI status is %s, expected %s", status, uiStatusAttached),
		}
	}

	c.logger.WithField("persistentAppUIId", c.uiID).Info("Persistent app UI is attached")
	return c.state.Event(ctx, describeUI.String())
}

// FetchPresignedURL obtains a time-limited URL for the history-server
// UI type and derives the session base URL from it.
func (c *PersistentUIClient) FetchPresignedURL(ctx context.Context) error {
	if err := c.guard(obtainURL, "fetch presigned URL"); err != nil {
		return err
	}

	out, err := c.api.GetPersistentAppUIPresignedURLWithContext(ctx, &awsemr.GetPersistentAppUIPresignedURLInput{
		PersistentAppUIId:   aws.String(c.uiID),
		PersistentAppUIType: aws.String(uiTypeSparkHistoryServer),
	})
	if err != nil {
		return errors.WithMessagef(err, "could not get presigned URL for persistent app UI %s", c.uiID)
	}
	if !aws.BoolValue(out.PresignedURLReady) {
		c.logger.Warn("Presigned URL reported as not ready, proceeding anyway")
	}

	c.presignedURL = aws.StringValue(out.PresignedURL)
	parsed, err := url.Parse(c.presignedURL)
	if err != nil {
		return errors.Wrap(err, "could not parse presigned URL")
	}
	c.baseURL = parsed.Scheme + "://" + parsed.Host

	c.logger.WithField("baseUrl", c.baseURL).Info("Obtained presigned URL")
	return c.state.Event(ctx, obtainURL.String())
}

// EstablishSession visits the presigned URL once so the proxy's auth
// cookies land in the client's jar.  Redirects are followed.
func (c *PersistentUIClient) EstablishSession(ctx context.Context) error {
	if err := c.guard(establishSession, "establish session"); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.presignedURL, nil)
	if err != nil {
		return errors.Wrap(err, "could not build presigned URL request")
	}
	for name, value := range sessionHeaders {
		req.Header.Set(name, value)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WithMessage(err, "could not establish session with presigned URL")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return errors.Errorf("presigned URL visit returned status %d", res.StatusCode)
	}

	c.logger.Info("HTTP session established")
	return c.state.Event(ctx, establishSession.String())
}

// Initialize runs the full bootstrap and returns the discovered base
// URL plus the cookie-bearing http client to talk to it with.
func (c *PersistentUIClient) Initialize(ctx context.Context) (string, *http.Client, error) {
	if err := c.CreateUI(ctx); err != nil {
		return "", nil, err
	}
	if err := c.DescribeUI(ctx); err != nil {
		return "", nil, err
	}
	if err := c.FetchPresignedURL(ctx); err != nil {
		return "", nil, err
	}
	if err := c.EstablishSession(ctx); err != nil {
		return "", nil, err
	}
	return c.baseURL, c.httpClient, nil
}
