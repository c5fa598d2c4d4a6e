package canvasrenderer

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
)

// loadImage 读取并解码图片，结果按 src 缓存。
// src 可写为 "builtin:<name>"、data URI 或相对 BaseDir 的路径。
func (r *Renderer) loadImage(src string) (image.Image, error) {
	r.imageMu.Lock()
	defer r.imageMu.Unlock()
	if img, ok := r.decoded[src]; ok {
		return img, nil
	}
	data, err := r.imageBytes(src)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("解码图片 %s 失败: %w", shortSrc(src), err)
	}
	r.decoded[src] = img
	return img, nil
}

func (r *Renderer) imageBytes(src string) ([]byte, error) {
	if name, ok := strings.CutPrefix(src, "builtin:"); ok {
		blob, ok := r.images[name]
		if !ok {
			return nil, fmt.Errorf("找不到内置图片资源 builtin:%s", name)
		}
		return blob, nil
	}
	if rest, ok := strings.CutPrefix(src, "data:"); ok {
		_, payload, found := strings.Cut(rest, ";base64,")
		if !found {
			return nil, fmt.Errorf("仅支持 base64 编码的 data URI")
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("解码 data URI 失败: %w", err)
		}
		return data, nil
	}
	if r.baseDir == "" && !filepath.IsAbs(src) {
		return nil, fmt.Errorf("未指定资源目录时不允许直接使用路径：%s（请改用 builtin: 或 data URI）", src)
	}
	path := src
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取图片 %s 失败: %w", src, err)
	}
	return data, nil
}

// ImageSize 返回图片像素尺寸，按 1px = 1pt 计。
func (r *Renderer) ImageSize(src string) (float64, float64, error) {
	img, err := r.loadImage(src)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return float64(b.Dx()), float64(b.Dy()), nil
}

func shortSrc(src string) string {
	if len(src) > 48 {
		return src[:48] + "..."
	}
	return src
}
