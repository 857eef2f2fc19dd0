package portscan

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/services.yaml
var embeddedServiceCatalogYAML []byte

const (
	confidenceBannerMatch        = 90
	confidencePortOnlyNoBanner   = 80
	confidencePortOnlyWithBanner = 60
	confidenceUnknown            = 0
)

type serviceRule struct {
	Tag      string   `yaml:"tag"`
	Patterns []string `yaml:"patterns"`
}

type portFallbackEntry struct {
	Port int    `yaml:"port"`
	Name string `yaml:"name"`
}

type serviceCatalog struct {
	Rules        []serviceRule       `yaml:"rules"`
	PortFallback []portFallbackEntry `yaml:"port_fallback"`
}

var (
	serviceCatalogOnce sync.Once
	services           *serviceCatalog
	servicesErr        error
	portFallbackIndex   map[int]string
)

func loadServiceCatalog() (*serviceCatalog, error) {
	serviceCatalogOnce.Do(func() {
		var c serviceCatalog
		if err := yaml.Unmarshal(embeddedServiceCatalogYAML, &c); err != nil {
			servicesErr = fmt.Errorf("unmarshal embedded service catalog: %w", err)
			return
		}
		services = &c
		portFallbackIndex = make(map[int]string, len(c.PortFallback))
		for _, e := range c.PortFallback {
			portFallbackIndex[e.Port] = e.Name
		}
	})
	return services, servicesErr
}

// productRule extracts a product name and version from a banner, once its
// service tag has already matched in stage 1.
type productRule struct {
	product string
	regex   *regexp.Regexp
}

var productRulesByTag = map[string][]productRule{
	"ssh": {
		{product: "OpenSSH", regex: regexp.MustCompile(`OpenSSH[_\-\s]?(\d+\.\d+(?:\.\d+)?)`)},
	},
	"http": {
		{product: "Apache", regex: regexp.MustCompile(`Apache/(\d+\.\d+(?:\.\d+)?)`)},
		{product: "nginx", regex: regexp.MustCompile(`nginx/(\d+\.\d+(?:\.\d+)?)`)},
		{product: "IIS", regex: regexp.MustCompile(`Microsoft-IIS/(\d+\.\d+(?:\.\d+)?)`)},
	},
	"ftp": {
		{product: "vsFTPd", regex: regexp.MustCompile(`vsFTPd (\d+\.\d+(?:\.\d+)?)`)},
		{product: "ProFTPD", regex: regexp.MustCompile(`ProFTPD (\d+\.\d+(?:\.\d+)?)`)},
	},
	"smtp": {
		{product: "Postfix", regex: regexp.MustCompile(`Postfix`)},
		{product: "Exim", regex: regexp.MustCompile(`Exim (\d+\.\d+(?:\.\d+)?)`)},
	},
	"mysql": {
		{product: "MariaDB", regex: regexp.MustCompile(`(\d+\.\d+\.\d+)-MariaDB`)},
	},
}

// IdentifyService runs the two-stage service identification cascade.
// banner is the normalized banner produced by the banner reader (which may
// be the "[No response]" placeholder), or empty if banner grabbing did not
// run; collected reports whether any banner bytes were actually read off the
// wire, so a placeholder banner with collected=false is treated as no banner.
func IdentifyService(banner string, port int, collected bool) ServiceInfo {
	catalog, err := loadServiceCatalog()
	if err != nil || catalog == nil {
		return ServiceInfo{Name: "unknown", Confidence: confidenceUnknown}
	}

	if banner != "" {
		lower := strings.ToLower(banner)
		for _, rule := range catalog.Rules {
			if matchesAny(lower, rule.Patterns) {
				product, version := extractProductVersion(rule.Tag, banner)
				return ServiceInfo{
					Name:       rule.Tag,
					Product:    product,
					Version:    version,
					Confidence: confidenceBannerMatch,
				}
			}
		}
	}

	if name, ok := portFallbackIndex[port]; ok {
		if collected && banner != "" {
			return ServiceInfo{
				Name:       name,
				ExtraInfo:  banner,
				Confidence: confidencePortOnlyWithBanner,
			}
		}
		return ServiceInfo{Name: name, Confidence: confidencePortOnlyNoBanner}
	}

	return ServiceInfo{Name: "unknown", Confidence: confidenceUnknown}
}

func matchesAny(lowerBanner string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(lowerBanner, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func extractProductVersion(tag, banner string) (product, version string) {
	for _, rule := range productRulesByTag[tag] {
		m := rule.regex.FindStringSubmatch(banner)
		if m == nil {
			continue
		}
		if len(m) > 1 {
			return rule.product, m[1]
		}
		return rule.product, ""
	}
	return "", ""
}
