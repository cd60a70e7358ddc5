package safe

import (
	"strings"
	"testing"
)

const fixtureSafeURL = "https://example.com/data/S1A_IW_SLC__1SDV_20200604T022251_20200604T022318_032861_03CE65_7C85.zip"

const fixtureAnnotationPath = "annotation/s1a-iw1-slc-vv-20200604t022251-20200604t022316-032861-03ce65-004.xml"

const fixtureManifestXML = `<?xml version="1.0" encoding="UTF-8"?>
<xfdu:XFDU xmlns:xfdu="urn:ccsds:schema:xfdu:1"
           xmlns:safe="http://www.esa.int/safe/sentinel-1.0"
           xmlns:s1="http://www.esa.int/safe/sentinel-1.0/sentinel-1"
           xmlns:s1sarl1="http://www.esa.int/safe/sentinel-1.0/sentinel-1/sar/level-1">
  <dataObjectSection>
    <dataObject>
      <byteStream>
        <fileLocation locatorType="URL" href="./measurement/s1a-iw1-slc-vv-20200604t022251-20200604t022316-032861-03ce65-004.tiff"/>
      </byteStream>
    </dataObject>
    <dataObject>
      <byteStream>
        <fileLocation locatorType="URL" href="./annotation/s1a-iw1-slc-vv-20200604t022251-20200604t022316-032861-03ce65-004.xml"/>
      </byteStream>
    </dataObject>
  </dataObjectSection>
  <metadataSection>
    <metadataObject>
      <metadataWrap>
        <xmlData>
          <safe:orbitReference>
            <safe:orbitNumber type="start">32861</safe:orbitNumber>
            <safe:relativeOrbitNumber type="start">64</safe:relativeOrbitNumber>
            <safe:extension>
              <s1:orbitProperties>
                <s1:pass>ASCENDING</s1:pass>
              </s1:orbitProperties>
            </safe:extension>
          </safe:orbitReference>
        </xmlData>
      </metadataWrap>
    </metadataObject>
    <metadataObject>
      <metadataWrap>
        <xmlData>
          <s1sarl1:generalProductInformation>
            <s1sarl1:instrumentMode>
              <s1sarl1:mode>IW</s1sarl1:mode>
              <s1sarl1:swath>IW1</s1sarl1:swath>
            </s1sarl1:instrumentMode>
            <s1sarl1:startTimeANX>2082746.447000</s1sarl1:startTimeANX>
          </s1sarl1:generalProductInformation>
        </xmlData>
      </metadataWrap>
    </metadataObject>
  </metadataSection>
</xfdu:XFDU>`

const fixtureAnnotationXML = `<?xml version="1.0" encoding="UTF-8"?>
<product>
  <adsHeader>
    <missionId>S1A</missionId>
    <mode>IW</mode>
    <polarisation>VV</polarisation>
  </adsHeader>
  <generalAnnotation>
    <productInformation>
      <radarFrequency>5.405000454334350e+09</radarFrequency>
      <azimuthSteeringRate>1.590368784000000e+00</azimuthSteeringRate>
      <rangeSamplingRate>6.428571428571429e+07</rangeSamplingRate>
    </productInformation>
    <downlinkInformationList count="1">
      <downlinkInformation>
        <downlinkValues>
          <rank>9</rank>
          <prf>1.717128973878037e+03</prf>
          <txPulseRampRate>1.078230321255894e+12</txPulseRampRate>
        </downlinkValues>
      </downlinkInformation>
    </downlinkInformationList>
    <azimuthFmRateList count="2">
      <azimuthFmRate>
        <azimuthTime>2020-06-04T02:22:53.000000</azimuthTime>
        <t0>5.331838042104627e-03</t0>
        <azimuthFmRatePolynomial count="3">-2325.739 450142.6 -78700000.0</azimuthFmRatePolynomial>
      </azimuthFmRate>
      <azimuthFmRate>
        <azimuthTime>2020-06-04T02:22:56.000000</azimuthTime>
        <t0>5.331838042104627e-03</t0>
        <azimuthFmRatePolynomial count="3">-2326.104 450201.9 -78710000.0</azimuthFmRatePolynomial>
      </azimuthFmRate>
    </azimuthFmRateList>
  </generalAnnotation>
  <imageAnnotation>
    <imageInformation>
      <azimuthTimeInterval>2.055556280538330e-03</azimuthTimeInterval>
      <slantRangeTime>5.331838042104627e-03</slantRangeTime>
    </imageInformation>
    <processingInformation>
      <swathProcParamsList count="1">
        <swathProcParams>
          <rangeProcessing>
            <windowType>Hamming</windowType>
            <windowCoefficient>7.500000000000000e-01</windowCoefficient>
            <processingBandwidth>5.654500000000000e+07</processingBandwidth>
          </rangeProcessing>
        </swathProcParams>
      </swathProcParamsList>
    </processingInformation>
  </imageAnnotation>
  <dopplerCentroid>
    <dcEstimateList count="1">
      <dcEstimate>
        <azimuthTime>2020-06-04T02:22:54.000000</azimuthTime>
        <t0>5.331838042104627e-03</t0>
        <dataDcPolynomial count="3">-1.5 2.25 -3.125</dataDcPolynomial>
      </dcEstimate>
    </dcEstimateList>
  </dopplerCentroid>
  <swathTiming>
    <linesPerBurst>2</linesPerBurst>
    <samplesPerBurst>3</samplesPerBurst>
    <burstList count="2">
      <burst>
        <azimuthTime>2020-06-04T02:22:53.618828</azimuthTime>
        <sensingTime>2020-06-04T02:22:54.561234</sensingTime>
        <azimuthAnxTime>2.082746447000000e+03</azimuthAnxTime>
        <byteOffset>10</byteOffset>
        <firstValidSample count="2">0 0</firstValidSample>
        <lastValidSample count="2">2 2</lastValidSample>
      </burst>
      <burst>
        <azimuthTime>2020-06-04T02:22:56.377101</azimuthTime>
        <sensingTime>2020-06-04T02:22:57.319507</sensingTime>
        <azimuthAnxTime>2.085504720000000e+03</azimuthAnxTime>
        <byteOffset>34</byteOffset>
        <firstValidSample count="2">0 0</firstValidSample>
        <lastValidSample count="2">2 2</lastValidSample>
      </burst>
    </burstList>
  </swathTiming>
  <geolocationGrid>
    <geolocationGridPointList count="6">
      <geolocationGridPoint>
        <line>0</line><pixel>0</pixel>
        <latitude>37.90</latitude><longitude>-122.50</longitude><height>10.0</height>
      </geolocationGridPoint>
      <geolocationGridPoint>
        <line>0</line><pixel>2</pixel>
        <latitude>37.90</latitude><longitude>-122.40</longitude><height>11.0</height>
      </geolocationGridPoint>
      <geolocationGridPoint>
        <line>2</line><pixel>0</pixel>
        <latitude>37.80</latitude><longitude>-122.52</longitude><height>12.0</height>
      </geolocationGridPoint>
      <geolocationGridPoint>
        <line>2</line><pixel>2</pixel>
        <latitude>37.80</latitude><longitude>-122.42</longitude><height>13.0</height>
      </geolocationGridPoint>
      <geolocationGridPoint>
        <line>4</line><pixel>0</pixel>
        <latitude>37.70</latitude><longitude>-122.54</longitude><height>14.0</height>
      </geolocationGridPoint>
      <geolocationGridPoint>
        <line>4</line><pixel>2</pixel>
        <latitude>37.70</latitude><longitude>-122.44</longitude><height>15.0</height>
      </geolocationGridPoint>
    </geolocationGridPointList>
  </geolocationGrid>
</product>`

// fixtureProduct parses the manifest and annotation fixtures into a Product.
func fixtureProduct(t *testing.T) *Product {
	t.Helper()

	manifest, err := ParseXML(strings.NewReader(fixtureManifestXML))
	if err != nil {
		t.Fatalf("ParseXML(manifest) error: %v", err)
	}
	annotation, err := ParseXML(strings.NewReader(fixtureAnnotationXML))
	if err != nil {
		t.Fatalf("ParseXML(annotation) error: %v", err)
	}

	p, err := NewProduct(fixtureSafeURL, manifest, map[string]*Node{
		fixtureAnnotationPath: annotation,
	})
	if err != nil {
		t.Fatalf("NewProduct() error: %v", err)
	}
	return p
}
