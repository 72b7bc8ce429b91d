package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"gitlab.com/zephyrtronium/tmi"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/zephyrtronium/noad/message"
	"github.com/zephyrtronium/noad/twitch"
)

// errNotConnected is returned by the client when there is no session to
// deliver a message to.
var errNotConnected = errors.New("not connected to TMI")

// client is the bot's Twitch chat connection. It implements [command.Gateway].
type client struct {
	// me is the bot's login name.
	me string
	// pass is the IRC PASS, including the oauth: prefix.
	pass string
	// timeout is the connection idle timeout.
	timeout time.Duration
	// rate is the global outbound message rate limit.
	rate *rate.Limiter
	// joins limits JOINs to Twitch's 20 per ten seconds.
	joins *rate.Limiter
	// log is the logger for the TMI library.
	log *slog.Logger

	// api is the HTTP client for Helix requests.
	api *http.Client
	// tokens supplies the access token for Helix requests.
	tokens oauth2.TokenSource
	// vmu guards valid.
	vmu sync.Mutex
	// valid is the cached validation of the access token, giving the
	// client ID and the bot's user ID.
	valid *twitch.Validation

	// redial asks the connection loop to start a new session.
	redial chan struct{}

	mu      sync.Mutex
	session *session
}

// session is a single connection attempt to TMI.
type session struct {
	send chan<- *tmi.Message
	done <-chan struct{}
}

func newClient(s *Settings, cfg TMICfg, log *slog.Logger) *client {
	pass := s.OAuthToken
	if !strings.HasPrefix(pass, "oauth:") {
		pass = "oauth:" + pass
	}
	tok := &oauth2.Token{
		AccessToken: strings.TrimPrefix(pass, "oauth:"),
		TokenType:   "Bearer",
	}
	return &client{
		me:      strings.ToLower(s.Nickname),
		pass:    pass,
		timeout: fseconds(cfg.Timeout),
		rate:    rate.NewLimiter(rate.Every(fseconds(cfg.Rate.Every)/time.Duration(cfg.Rate.Num)), int(cfg.Rate.Num)),
		// Per https://dev.twitch.tv/docs/irc/#rate-limits we get 20 join
		// attempts per ten seconds. Use a slightly longer period to ensure
		// we don't get globaled by clock drift.
		joins:   rate.NewLimiter(rate.Every(11*time.Second/20), 20),
		log:     log,
		api:     &http.Client{Timeout: 10 * time.Second},
		tokens:  oauth2.StaticTokenSource(tok),
		redial:  make(chan struct{}, 1),
	}
}

func (c *client) current() *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *client) setSession(s *session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

// write delivers a message to the current session.
func (c *client) write(ctx context.Context, msg *tmi.Message) error {
	s := c.current()
	if s == nil {
		return errNotConnected
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return errNotConnected
	case s.send <- msg:
		return nil
	}
}

// Send sends a chat message, waiting for the global rate limit.
func (c *client) Send(ctx context.Context, msg message.Sent) error {
	if err := c.rate.Wait(ctx); err != nil {
		return fmt.Errorf("couldn't wait to send: %w", err)
	}
	return c.write(ctx, message.ToTMI(msg))
}

// Join joins a channel, waiting for the join rate limit.
func (c *client) Join(ctx context.Context, channel string) error {
	if err := c.joins.Wait(ctx); err != nil {
		return fmt.Errorf("couldn't wait to join: %w", err)
	}
	msg := tmi.Message{
		Command: "JOIN",
		Params:  []string{"#" + strings.TrimPrefix(channel, "#")},
	}
	return c.write(ctx, &msg)
}

// Leave parts a channel.
func (c *client) Leave(ctx context.Context, channel string) error {
	msg := tmi.Message{
		Command: "PART",
		Params:  []string{"#" + strings.TrimPrefix(channel, "#")},
	}
	return c.write(ctx, &msg)
}

// Ban bans the sender of a message through the Helix API. Twitch no longer
// acts on chat commands like /ban.
func (c *client) Ban(ctx context.Context, msg *message.Received, reason string) error {
	if msg.ChannelID == "" || msg.Sender == "" {
		return fmt.Errorf("couldn't ban %s in %s: message has no channel or sender ID", msg.Name, msg.Channel)
	}
	tok, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("couldn't get access token: %w", err)
	}
	v, err := c.validation(ctx, tok)
	if err != nil {
		return err
	}
	cl := twitch.Client{HTTP: c.api, ID: v.ClientID}
	ban := twitch.BanRequest{UserID: msg.Sender, Reason: reason}
	_, err = twitch.Ban(ctx, cl, tok, msg.ChannelID, v.UserID, ban)
	if errors.Is(err, twitch.ErrNeedRefresh) {
		// Validate again next time in case the token changed under us.
		c.vmu.Lock()
		c.valid = nil
		c.vmu.Unlock()
	}
	return err
}

// validation returns the cached validation of the access token, validating
// it if needed.
func (c *client) validation(ctx context.Context, tok *oauth2.Token) (*twitch.Validation, error) {
	c.vmu.Lock()
	defer c.vmu.Unlock()
	if c.valid != nil {
		return c.valid, nil
	}
	v, err := twitch.Validate(ctx, c.api, tok)
	if err != nil {
		return nil, fmt.Errorf("couldn't validate access token: %w", err)
	}
	c.valid = v
	return v, nil
}

// Reconnect drops the current session, if any, and asks for a new one.
func (c *client) Reconnect(ctx context.Context) error {
	select {
	case c.redial <- struct{}{}:
	default: // already pending
	}
	return nil
}

// twitch runs TMI sessions until ctx is canceled. When a session ends on its
// own, the robot is told it was disconnected, and the next session waits for
// a reconnect request.
func (robo *Robot) twitch(ctx context.Context) error {
	for {
		requested := robo.tmiSession(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !requested {
			robo.core.OnDisconnected(ctx)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-robo.tmi.redial:
			}
		}
	}
}

// tmiSession connects to TMI and runs the message loop until the connection
// ends. It reports whether the session ended because of a reconnect request.
func (robo *Robot) tmiSession(ctx context.Context) bool {
	c := robo.tmi
	cfg := tmi.ConnectConfig{
		Dial:         new(tls.Dialer).DialContext,
		RetryWait:    tmi.RetryList(false, 0, time.Second, 5*time.Second, 30*time.Second, time.Minute, 5*time.Minute),
		Nick:         c.me,
		Pass:         c.pass,
		Capabilities: []string{"twitch.tv/commands", "twitch.tv/tags"},
		Timeout:      c.timeout,
	}
	sctx, drop := context.WithCancel(ctx)
	defer drop()
	send := make(chan *tmi.Message, 1)
	recv := make(chan *tmi.Message, 8) // 8 is enough for on-connect msgs
	c.setSession(&session{send: send, done: sctx.Done()})
	defer c.setSession(nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		tmi.Connect(sctx, cfg, tmi.Log(slog.NewLogLogger(c.log.Handler(), slog.LevelDebug), false), send, recv)
	}()
	// Events and their work outlive the session, so they get the outer
	// context.
	requested := robo.tmiLoop(ctx, c.redial, recv, done)
	drop()
	<-done
	return requested
}

// tmiLoop handles messages from TMI until the connection ends or a reconnect
// is requested.
func (robo *Robot) tmiLoop(ctx context.Context, redial <-chan struct{}, recv <-chan *tmi.Message, done <-chan struct{}) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-done:
			return false
		case <-redial:
			slog.InfoContext(ctx, "reconnecting to TMI")
			return true
		case msg, ok := <-recv:
			if !ok {
				return false
			}
			if robo.tmiEvent(ctx, msg) {
				slog.InfoContext(ctx, "TMI asked us to reconnect")
				return true
			}
		}
	}
}

// tmiEvent routes one message from TMI to the robot. It reports whether TMI
// asked for a reconnect.
func (robo *Robot) tmiEvent(ctx context.Context, msg *tmi.Message) bool {
	switch msg.Command {
	case "PRIVMSG":
		robo.tmiMessage(ctx, msg)
	case "JOIN":
		if strings.EqualFold(msg.Nick, robo.tmi.me) {
			robo.core.OnJoined(ctx, channelOf(msg))
		}
	case "PART":
		if strings.EqualFold(msg.Nick, robo.tmi.me) {
			// Don't block the loop on rejoins waiting for the rate limit.
			ch := channelOf(msg)
			go robo.core.OnLeft(ctx, ch)
		}
	case "NOTICE":
		slog.InfoContext(ctx, "TMI notice", slog.String("in", msg.To()), slog.String("text", msg.Trailing))
	case "GLOBALUSERSTATE":
		slog.InfoContext(ctx, "connected to TMI", slog.String("GLOBALUSERSTATE", msg.Tags))
	case "RECONNECT":
		return true
	case "376": // End MOTD
		go robo.core.OnConnected(ctx)
	}
	return false
}

func channelOf(msg *tmi.Message) string {
	return strings.ToLower(strings.TrimPrefix(msg.To(), "#"))
}
