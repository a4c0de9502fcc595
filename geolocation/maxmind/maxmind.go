package maxmind

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"sync/atomic"

	"github.com/digital-lumenspei/renovi-web-sdk/geolocation"

	geoip2 "github.com/oschwald/geoip2-golang"
)

const Vendor = "maxmind"

const DatabaseFileName = "GeoLite2-City.mmdb"

// GeoLocation is an offline geolocation.GeoLocation backed by a GeoLite2 City database.
type GeoLocation struct {
	reader atomic.Pointer[geoip2.Reader]
}

func (g *GeoLocation) Lookup(_ context.Context, ipAddress string) (*geolocation.GeoInfo, error) {
	ip := net.ParseIP(ipAddress)
	if len(ip) == 0 {
		return nil, geolocation.ErrLookupIPInvalid
	}

	reader := g.reader.Load()
	if reader == nil {
		return nil, geolocation.ErrDatabaseUnavailable
	}

	record, err := reader.City(ip)
	if err != nil {
		return nil, err
	}

	info := &geolocation.GeoInfo{
		Vendor:    Vendor,
		Continent: record.Continent.Code,
		Country:   record.Country.IsoCode,
		Zip:       record.Postal.Code,
		Lat:       record.Location.Latitude,
		Lon:       record.Location.Longitude,
		TimeZone:  record.Location.TimeZone,
	}
	if len(record.Subdivisions) > 0 {
		info.Region = record.Subdivisions[0].IsoCode
	}
	if len(record.City.Names) > 0 {
		info.City = record.City.Names["en"]
	}
	return info, nil
}

// SetDataPath loads a database and swaps it in. The path may point to a raw .mmdb file
// or to a GeoLite2 .tar.gz release containing one.
func (g *GeoLocation) SetDataPath(filepath string) error {
	var (
		reader *geoip2.Reader
		err    error
	)
	if strings.HasSuffix(filepath, ".mmdb") {
		reader, err = geoip2.Open(filepath)
	} else {
		reader, err = readArchive(filepath)
	}
	if err != nil {
		return err
	}

	if previous := g.reader.Swap(reader); previous != nil {
		previous.Close()
	}
	return nil
}

// Close releases the loaded database, if any.
func (g *GeoLocation) Close() error {
	if reader := g.reader.Swap(nil); reader != nil {
		return reader.Close()
	}
	return nil
}

func readArchive(filepath string) (*geoip2.Reader, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer gzipReader.Close()

	tarReader := tar.NewReader(gzipReader)
	for {
		header, err := tarReader.Next()
		// io.EOF and other errors
		if err != nil {
			return nil, errors.New("failed to read tar file: " + err.Error())
		}

		// releases nest the database in a dated directory
		if header.Name == DatabaseFileName || strings.HasSuffix(header.Name, "/"+DatabaseFileName) {
			buf := new(bytes.Buffer)
			if _, err := io.Copy(buf, tarReader); err != nil {
				return nil, err
			}
			return geoip2.FromBytes(buf.Bytes())
		}
	}
}
