package discovery

// SelfDescription composes the ApplicationDescription for this server
// instance, per SPEC_FULL §4.2.1. Grounded on original_source's
// setApplicationDescriptionFromServer: applicationType=DiscoveryServer is
// coerced to Server, and every network-layer discovery URL is appended to
// the configured list without deduplication (see SPEC_FULL §9, Open
// Question 1 — the source leaves this TODO uncompleted and this repo
// reproduces that).
func SelfDescription(self ApplicationDescription, layers []NetworkLayer) ApplicationDescription {
	out := self
	out.DiscoveryURLs = append([]string(nil), self.DiscoveryURLs...)
	if out.ApplicationType == AppTypeDiscoveryServer {
		out.ApplicationType = AppTypeServer
	}
	for _, nl := range layers {
		out.DiscoveryURLs = append(out.DiscoveryURLs, nl.DiscoveryURL)
	}
	return out
}

// PeerDescription composes the ApplicationDescription for a registered peer,
// selecting ApplicationName per the requested locales (SPEC_FULL §4.2.2,
// testable property 2). Unlike SelfDescription, ApplicationType is copied
// field-for-field -- the DiscoveryServer->Server coercion is specific to the
// self-description (SPEC_FULL §3, testable property 4;
// setApplicationDescriptionFromRegisteredServer copies serverType verbatim).
func PeerDescription(localeIDs []string, rec RegisteredServer) ApplicationDescription {
	out := ApplicationDescription{
		ApplicationURI:   rec.ServerURI,
		ProductURI:       rec.ProductURI,
		ApplicationType:  rec.ServerType,
		GatewayServerURI: rec.GatewayServerURI,
		DiscoveryURLs:    append([]string(nil), rec.DiscoveryURLs...),
	}
	out.ApplicationName = selectApplicationName(localeIDs, rec.ServerNames)
	return out
}

// selectApplicationName implements SPEC_FULL §4.2.2's locale-matching rule:
// scan requested locales in order; for each, scan the record's names in
// order; take the first text whose locale matches and stop. Falls back to
// the first server name, or a zero value if there are none.
func selectApplicationName(localeIDs []string, names []LocalizedText) LocalizedText {
	for _, locale := range localeIDs {
		for _, name := range names {
			if name.Locale == locale {
				return name
			}
		}
	}
	if len(names) > 0 {
		return names[0]
	}
	return LocalizedText{}
}
