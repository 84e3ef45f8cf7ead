package configmodel

import (
	"fmt"
	"net/url"
	"strings"
)

const linkedInAddToProfileURL = "http://www.linkedin.com/profile/add"

// certificate modes known to LinkedIn names; kept here to avoid importing the certificate package.
var linkedInCertNames = map[string]string{
	"honor":              "%s Honor Code Certificate for %s",
	"verified":           "%s Verified Certificate for %s",
	"professional":       "%s Professional Certificate for %s",
	"no-id-professional": "%s Professional Certificate for %s",
}

// CertificationName is the name of the certificate shown on the LinkedIn profile.
func (c LinkedInConfig) CertificationName(platformName, courseName, certMode string) string {
	format, ok := linkedInCertNames[certMode]
	if !ok {
		format = "%s Certificate for %s"
	}
	return fmt.Sprintf(format, platformName, courseName)
}

// AddToProfileURL builds the URL of the LinkedIn "Add to profile" button.
// source is where the button is shown (e.g. "o" for the dashboard) and target tracks which button was clicked.
func (c LinkedInConfig) AddToProfileURL(platformName, courseKey, courseName, certMode, certURL, source, target string) string {
	params := url.Values{}
	params.Set("_ed", c.CompanyIdentifier)
	params.Set("pfCertificationName", c.CertificationName(platformName, courseName, certMode))
	params.Set("pfCertificationUrl", certURL)
	params.Set("source", source)
	if trk := c.trackingCode(courseKey, certMode, target); trk != "" {
		params.Set("trk", trk)
	}
	return linkedInAddToProfileURL + "?" + params.Encode()
}

func (c LinkedInConfig) trackingCode(courseKey, certMode, target string) string {
	if c.TrkPartnerName == "" {
		return ""
	}
	return strings.Join([]string{c.TrkPartnerName, courseKey, certMode, target}, "-")
}
