package plugin

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	"github.com/skyverge/sake/internal/composer"
	"github.com/skyverge/sake/internal/model"
)

// Framework asset directories relative to the framework base.
const (
	FrameworkGeneralCSS = "woocommerce/assets/css"
	FrameworkGeneralJS  = "woocommerce/assets/js"
	FrameworkGatewayCSS = "woocommerce/payment-gateway/assets/css"
	FrameworkGatewayJS  = "woocommerce/payment-gateway/assets/js"
)

// DefaultFrameworkBase returns where the framework lives for a major
// version before composer installer-path overrides.
func DefaultFrameworkBase(fw model.Framework) string {
	if fw == model.FrameworkV5 {
		return "vendor/skyverge/wc-plugin-framework"
	}
	return "lib/skyverge"
}

// FrameworkVersion reads the version of the framework copy at base.
// v5 copies carry a package.json; v4 copies are identified by the first
// entry of woocommerce/changelog.txt. Returns "" when neither exists.
func FrameworkVersion(fsys afero.Fs, base string, fw model.Framework) (string, error) {
	if fw == model.FrameworkV5 {
		pkg, err := composer.LoadPackageJSON(fsys, filepath.Join(base, "package.json"))
		if err != nil || pkg == nil {
			return "", err
		}
		return pkg.Version, nil
	}

	data, err := afero.ReadFile(fsys, filepath.Join(base, "woocommerce", "changelog.txt"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if i := strings.Index(line, "version"); i >= 0 {
			return strings.TrimSpace(line[i+len("version"):]), nil
		}
	}
	return "", nil
}

var (
	gatewayV5 = regexp.MustCompile(`SV_WC_Payment_Gateway_Plugin`)
	gatewayV4 = regexp.MustCompile(`['"]is_payment_gateway['"]\s*=>\s*true`)
)

// IsPaymentGateway inspects the main plugin file to tell whether the
// plugin is built on the framework's payment gateway layer. Non-gateway
// builds drop the framework's payment-gateway directory.
func IsPaymentGateway(mainFile []byte, fw model.Framework) bool {
	switch fw {
	case model.FrameworkV5:
		return gatewayV5.Match(mainFile)
	case model.FrameworkV4:
		return gatewayV4.Match(mainFile)
	}
	return false
}
