package emr

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	awsemr "github.com/aws/aws-sdk-go/service/emr"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testClusterARN = "arn:aws:elasticmapreduce:us-west-2:123456789012:cluster/j-TESTCLUSTER"

type fakePersistentUIAPI struct {
	createCalls   int
	describeCalls int
	presignCalls  int

	uiStatus     string
	presignedURL string
	createErr    error
}

func (f *fakePersistentUIAPI) CreatePersistentAppUIWithContext(_ aws.Context, input *awsemr.CreatePersistentAppUIInput, _ ...request.Option) (*awsemr.CreatePersistentAppUIOutput, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	if aws.StringValue(input.TargetResourceArn) != testClusterARN {
		return nil, errors.New("unexpected cluster ARN")
	}
	return &awsemr.CreatePersistentAppUIOutput{
		PersistentAppUIId: aws.String("p-ABCDEF123456"),
	}, nil
}

func (f *fakePersistentUIAPI) DescribePersistentAppUIWithContext(_ aws.Context, input *awsemr.DescribePersistentAppUIInput, _ ...request.Option) (*awsemr.DescribePersistentAppUIOutput, error) {
	f.describeCalls++
	if aws.StringValue(input.PersistentAppUIId) != "p-ABCDEF123456" {
		return nil, errors.New("unknown persistent UI ID")
	}
	return &awsemr.DescribePersistentAppUIOutput{
		PersistentAppUI: &awsemr.PersistentAppUI{
			PersistentAppUIId:     input.PersistentAppUIId,
			PersistentAppUIStatus: aws.String(f.uiStatus),
		},
	}, nil
}

func (f *fakePersistentUIAPI) GetPersistentAppUIPresignedURLWithContext(_ aws.Context, input *awsemr.GetPersistentAppUIPresignedURLInput, _ ...request.Option) (*awsemr.GetPersistentAppUIPresignedURLOutput, error) {
	f.presignCalls++
	if aws.StringValue(input.PersistentAppUIType) != uiTypeSparkHistoryServer {
		return nil, errors.New("unexpected UI type")
	}
	return &awsemr.GetPersistentAppUIPresignedURLOutput{
		PresignedURLReady: aws.Bool(true),
		PresignedURL:      aws.String(f.presignedURL),
	}, nil
}

func newTestBootstrapClient(t *testing.T, api *fakePersistentUIAPI) *PersistentUIClient {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return newWithAPI(testClusterARN, api, &http.Client{Jar: jar})
}

func TestInitializeHappyPath(t *testing.T) {
	var sessionHit bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionHit = true
		assert.Equal(t, "EMR-Persistent-UI-Client/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "1", r.Header.Get("Upgrade-Insecure-Requests"))
		http.SetCookie(w, &http.Cookie{Name: "proxy-session", Value: "abc123"})
	}))
	defer server.Close()

	api := &fakePersistentUIAPI{
		uiStatus:     uiStatusAttached,
		presignedURL: server.URL + "/shs?authToken=opaque",
	}
	c := newTestBootstrapClient(t, api)

	baseURL, httpClient, err := c.Initialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, server.URL, baseURL)
	assert.True(t, sessionHit)
	assert.Equal(t, stateSessionEstablished.String(), c.State())

	cookies := httpClient.Jar.Cookies(mustParseURL(t, server.URL))
	require.Len(t, cookies, 1)
	assert.Equal(t, "proxy-session", cookies[0].Name)
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	return parsed
}

func TestInitializeFailsWhenUINotAttached(t *testing.T) {
	api := &fakePersistentUIAPI{uiStatus: "PENDING"}
	c := newTestBootstrapClient(t, api)

	_, _, err := c.Initialize(context.Background())
	require.Error(t, err)

	var stateErr *BootstrapStateError
	require.True(t, errors.As(err, &stateErr))
	assert.Contains(t, stateErr.Reason, "PENDING")
	assert.Equal(t, 0, api.presignCalls, "presigned URL must not be requested for an unattached UI")
	assert.Equal(t, stateCreated.String(), c.State())
}

func TestStepsRejectedOutOfOrder(t *testing.T) {
	api := &fakePersistentUIAPI{uiStatus: uiStatusAttached}
	c := newTestBootstrapClient(t, api)

	err := c.DescribeUI(context.Background())
	var stateErr *BootstrapStateError
	require.True(t, errors.As(err, &stateErr))
	assert.Equal(t, stateNew.String(), stateErr.State)
	assert.Equal(t, 0, api.describeCalls)

	err = c.EstablishSession(context.Background())
	require.True(t, errors.As(err, &stateErr))
}

func TestCreateUICannotRepeat(t *testing.T) {
	api := &fakePersistentUIAPI{uiStatus: uiStatusAttached}
	c := newTestBootstrapClient(t, api)

	require.NoError(t, c.CreateUI(context.Background()))
	err := c.CreateUI(context.Background())

	var stateErr *BootstrapStateError
	require.True(t, errors.As(err, &stateErr))
	assert.Equal(t, 1, api.createCalls)
}

func TestCreateUIFailureKeepsInitialState(t *testing.T) {
	api := &fakePersistentUIAPI{createErr: errors.New("throttled")}
	c := newTestBootstrapClient(t, api)

	_, _, err := c.Initialize(context.Background())
	require.Error(t, err)
	assert.Equal(t, stateNew.String(), c.State(), "a failed step must not advance the machine")
}
