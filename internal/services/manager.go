package services

import (
	"log/slog"
	"time"

	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/cache"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/events"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/realtime"
	"github.com/MuhammadsolihGofurov/404online.uz-sub002/internal/repositories"
)

// LMSClient is everything the services need from the LMS REST API
type LMSClient interface {
	UpstreamAPI
	ProxyAPI
	IdentityAPI
}

type ServiceManager interface {
	Session() SessionService
	Export() ExportService
	Proxy() ProxyService
	Relay() RelayService
	Identity() IdentityService
	Close()
}

type Dependencies struct {
	Client    LMSClient
	Sessions  repositories.SessionRepository
	Cache     cache.CacheService
	Publisher events.EventPublisher
	Relay     RelayConfig
	CacheTTL  time.Duration
	Logger    *slog.Logger
}

type serviceManager struct {
	session  SessionService
	export   ExportService
	proxy    ProxyService
	relay    RelayService
	identity IdentityService
}

func NewServiceManager(deps Dependencies) ServiceManager {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	session := NewSessionService(deps.Client, deps.Sessions, deps.Cache, deps.Publisher, logger, deps.CacheTTL)
	return &serviceManager{
		session:  session,
		export:   NewExportService(session, logger),
		proxy:    NewProxyService(deps.Client, deps.Cache, logger),
		relay:    NewRelayService(deps.Relay, realtime.NewHub(logger), logger),
		identity: NewIdentityService(deps.Client, deps.Cache, logger),
	}
}

func (m *serviceManager) Session() SessionService   { return m.session }
func (m *serviceManager) Export() ExportService     { return m.export }
func (m *serviceManager) Proxy() ProxyService       { return m.proxy }
func (m *serviceManager) Relay() RelayService       { return m.relay }
func (m *serviceManager) Identity() IdentityService { return m.identity }

// Close stops the upstream realtime sockets
func (m *serviceManager) Close() {
	m.relay.Close()
}
