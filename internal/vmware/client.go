package vmware

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/nirarg/vmtools/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/vmware/govmomi"
	"github.com/vmware/govmomi/session"
	"github.com/vmware/govmomi/vim25"
	"github.com/vmware/govmomi/vim25/soap"
)

const logoutTimeout = 10 * time.Second

// Client represents a VMware vSphere session that is opened once and closed exactly once
type Client struct {
	config         config.VSphereConfig
	logger         *logrus.Logger
	client         *govmomi.Client
	mutex          sync.RWMutex
	disconnectOnce sync.Once
	isLoggedIn     bool
}

// NewClient creates a new VMware client instance
func NewClient(cfg config.VSphereConfig, logger *logrus.Logger) *Client {
	return &Client{
		config: cfg,
		logger: logger,
	}
}

// Connect establishes an authenticated session to the configured endpoint.
// Returned errors are *Error with KindCredentials, KindAuth or KindConnectivity.
func (c *Client) Connect(ctx context.Context, username, password string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if username == "" || password == "" {
		return newError(KindCredentials, "connect", errors.New("username and password are required"))
	}

	endpoint, err := soap.ParseURL(c.config.GetSDKURL())
	if err != nil {
		return newError(KindCredentials, "connect", fmt.Errorf("invalid endpoint URL: %w", err))
	}

	c.logger.WithFields(logrus.Fields{
		"endpoint": endpoint.String(),
		"user":     username,
	}).Info("Connecting to vSphere")

	connectCtx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	soapClient := soap.NewClient(endpoint, c.config.InsecureSkipVerify)
	if c.config.InsecureSkipVerify {
		soapClient.DefaultTransport().TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}
	soapClient.Timeout = c.config.RequestTimeout

	vimClient, err := vim25.NewClient(connectCtx, soapClient)
	if err != nil {
		return newError(KindConnectivity, "connect", fmt.Errorf("failed to create vim25 client: %w", err))
	}

	sessionMgr := session.NewManager(vimClient)
	if err := c.loginWithRetry(connectCtx, sessionMgr, url.UserPassword(username, password)); err != nil {
		return err
	}

	userSession, err := sessionMgr.UserSession(connectCtx)
	if err != nil {
		return newError(KindConnectivity, "connect", fmt.Errorf("failed to verify session: %w", err))
	}
	if userSession == nil {
		return newError(KindAuth, "connect", errors.New("session not established"))
	}

	c.client = &govmomi.Client{
		Client:         vimClient,
		SessionManager: sessionMgr,
	}
	c.isLoggedIn = true

	c.logger.WithFields(logrus.Fields{
		"user":     userSession.UserName,
		"session":  userSession.Key,
		"login_at": userSession.LoginTime,
	}).Info("Successfully connected and authenticated to vSphere")
	return nil
}

// loginWithRetry retries connectivity failures only; a rejected login is final.
func (c *Client) loginWithRetry(ctx context.Context, mgr *session.Manager, user *url.Userinfo) error {
	var lastErr error

	for attempt := 0; attempt <= c.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"delay":   c.config.RetryDelay,
			}).Warn("Retrying vSphere login")

			select {
			case <-ctx.Done():
				return newError(KindConnectivity, "login", ctx.Err())
			case <-time.After(c.config.RetryDelay):
			}
		}

		err := mgr.Login(ctx, user)
		if err == nil {
			c.logger.WithField("attempt", attempt+1).Debug("Login successful")
			return nil
		}

		kind := classifyLoginError(err)
		c.logger.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"kind":    kind.String(),
			"error":   err,
		}).Warn("Login attempt failed")

		if kind == KindAuth {
			return newError(KindAuth, "login", err)
		}
		lastErr = err
	}

	return newError(KindConnectivity, "login",
		fmt.Errorf("login failed after %d attempts: %w", c.config.RetryAttempts+1, lastErr))
}

// Disconnect logs out of vSphere. Only the first call does any work, so it is
// safe to defer it and also call it from a signal path.
func (c *Client) Disconnect(ctx context.Context) error {
	var logoutErr error

	c.disconnectOnce.Do(func() {
		c.mutex.Lock()
		defer c.mutex.Unlock()

		if c.client == nil || !c.isLoggedIn {
			return
		}

		c.logger.Info("Disconnecting from vSphere")

		logoutCtx, cancel := context.WithTimeout(ctx, logoutTimeout)
		defer cancel()

		if err := c.client.SessionManager.Logout(logoutCtx); err != nil {
			c.logger.WithError(err).Warn("Error during logout")
			logoutErr = fmt.Errorf("logout failed: %w", err)
		}

		c.isLoggedIn = false
		c.client = nil
		c.logger.Info("Disconnected from vSphere")
	})

	return logoutErr
}

// IsConnected returns true if the client is connected and logged in
func (c *Client) IsConnected() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.client != nil && c.isLoggedIn
}

// VimClient returns the underlying vim25 client of an open session
func (c *Client) VimClient() (*vim25.Client, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	if c.client == nil || !c.isLoggedIn {
		return nil, errors.New("not connected to vSphere")
	}
	return c.client.Client, nil
}
